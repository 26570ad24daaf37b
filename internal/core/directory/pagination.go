package directory

// Button はページ送りボタンの一つです。Ellipsis の場合 Page は 0 です。
type Button struct {
	Page     int
	Current  bool
	Ellipsis bool
}

// Nav は前後ページへの移動ボタンです。無効な場合も移動先のページ番号を保持します。
type Nav struct {
	Page     int
	Disabled bool
}

// Window は表示するページ送りの範囲です。
type Window struct {
	CurrentPage int
	TotalPages  int
	Buttons     []Button
	Prev        Nav
	Next        Nav
}

// IsEmpty はページ送りを描画する必要が無いかを返します。
func (w Window) IsEmpty() bool {
	return len(w.Buttons) == 0
}

// ComputeWindow は総件数・ページサイズ・要求ページからページ送りを計算します。
// 先頭ページ・最終ページ・現在ページの前後 1 ページを含め、間が空く箇所には省略記号を一つだけ挟みます。
func ComputeWindow(totalItems, pageSize, requestedPage int) Window {
	if totalItems < 0 {
		totalItems = 0
	}

	totalPages := 1
	if pageSize > 0 {
		totalPages = max(1, (totalItems+pageSize-1)/pageSize)
	}

	current := clampInt(requestedPage, 1, max(1, totalPages))

	w := Window{
		CurrentPage: current,
		TotalPages:  totalPages,
		Prev:        Nav{Page: current - 1, Disabled: current <= 1},
		Next:        Nav{Page: current + 1, Disabled: current >= totalPages},
	}
	if totalPages <= 1 {
		return w
	}

	last := 0
	for _, i := range []int{1, current - 1, current, current + 1, totalPages} {
		if i <= last || i > totalPages {
			continue
		}
		if last != 0 && i-last > 1 {
			w.Buttons = append(w.Buttons, Button{Ellipsis: true})
		}
		w.Buttons = append(w.Buttons, Button{Page: i, Current: i == current})
		last = i
	}
	return w
}
