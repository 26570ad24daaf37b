package profile

import (
	"testing"
	"time"
)

func TestDepartmentColor_Deterministic(t *testing.T) {
	t.Parallel()

	if got := DepartmentColor(""); got != "" {
		t.Fatalf("expected empty color for empty department, got %q", got)
	}

	first := DepartmentColor("Engineering")
	for i := 0; i < 5; i++ {
		if got := DepartmentColor("Engineering"); got != first {
			t.Fatalf("expected stable color %s, got %s", first, got)
		}
	}

	found := false
	for _, c := range departmentPalette {
		if c == first {
			found = true
		}
	}
	if !found {
		t.Fatalf("color %s is not in palette", first)
	}
}

func TestDepartmentColor_KnownValue(t *testing.T) {
	t.Parallel()

	// crc32("Sales") = 0xaa405f40 → index 0
	if got := DepartmentColor("Sales"); got != departmentPalette[0] {
		t.Fatalf("unexpected color for Sales: %s", got)
	}
}

func TestTenure(t *testing.T) {
	t.Parallel()

	today := time.Date(2024, 5, 1, 15, 30, 0, 0, time.UTC)

	cases := []struct {
		name  string
		start string
		want  string
	}{
		{name: "year month", start: "2022-03", want: "2 yrs"},
		{name: "full date", start: "2020-05-01", want: "4 yrs"},
		{name: "day before anniversary", start: "2023-05-02", want: "< 1 yr"},
		{name: "last month", start: "2024-04", want: "< 1 yr"},
		{name: "empty", start: "", want: ""},
		{name: "garbage", start: "next spring", want: ""},
		{name: "invalid month", start: "2022-13", want: ""},
		{name: "future", start: "2030-01", want: "< 1 yr"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Tenure(tc.start, today); got != tc.want {
				t.Fatalf("Tenure(%q) = %q, want %q", tc.start, got, tc.want)
			}
		})
	}
}

func TestIsNewHire(t *testing.T) {
	t.Parallel()

	today := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)

	if IsNewHire("2024-05", today, 0) {
		t.Fatal("threshold 0 must disable new-hire detection")
	}
	if !IsNewHire("2024-05", today, 30) {
		t.Fatal("expected start 19 days ago to be a new hire")
	}
	if IsNewHire("2024-01", today, 30) {
		t.Fatal("expected start months ago not to be a new hire")
	}
	if IsNewHire("", today, 30) {
		t.Fatal("empty start date must not be a new hire")
	}
	if !IsNewHire("2024-04-20", today, 30) {
		t.Fatal("expected exactly 30 days to be inclusive")
	}
	if IsNewHire("2024-06", today, 30) {
		t.Fatal("start date in the future must not be a new hire")
	}
	if !IsNewHire("2024-05-20", today, 30) {
		t.Fatal("start date today must be a new hire")
	}
}

func TestNewHireCutoff(t *testing.T) {
	t.Parallel()

	today := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	if got := NewHireCutoff(today, 60); got != "2024-03" {
		t.Fatalf("unexpected cutoff: %s", got)
	}
}

func TestSocialLink(t *testing.T) {
	t.Parallel()

	cases := []struct {
		platform Platform
		value    string
		wantURL  string
	}{
		{PlatformWhatsApp, "+1 (555) 010-2030", "https://wa.me/15550102030"},
		{PlatformTelegram, "@jdoe", "https://t.me/jdoe"},
		{PlatformDiscord, "jdoe#1234", ""},
		{PlatformInstagram, "@jdoe", "https://instagram.com/jdoe/"},
		{PlatformFacebook, "https://facebook.com/jdoe", "https://facebook.com/jdoe"},
		{PlatformTwitter, "jdoe", "https://x.com/jdoe"},
		{PlatformYouTube, "https://youtube.com/@jdoe", "https://youtube.com/@jdoe"},
		{PlatformTikTok, "@jdoe", "https://tiktok.com/@jdoe"},
	}

	for _, tc := range cases {
		link := SocialLink(tc.platform, tc.value)
		if link.URL != tc.wantURL {
			t.Errorf("%s: expected url %q, got %q", tc.platform, tc.wantURL, link.URL)
		}
		if link.Label == "" {
			t.Errorf("%s: expected label", tc.platform)
		}
	}
}

func TestAvatarURL(t *testing.T) {
	t.Parallel()

	if got := AvatarURL("https://cdn.example.com/a.png", "initials", "Alice"); got != "https://cdn.example.com/a.png" {
		t.Fatalf("expected photo url, got %s", got)
	}
	if got := AvatarURL("", "", "Alice Smith"); got != "https://api.dicebear.com/9.x/initials/svg?seed=Alice+Smith" {
		t.Fatalf("unexpected fallback avatar: %s", got)
	}
}
