package keyboard

import "testing"

func TestLayoutWrap(t *testing.T) {
	var l Layout
	m := l.Wrap(3,
		Button{Text: "5", Unique: "count", Data: "5"},
		Button{Text: "10", Unique: "count", Data: "10"},
		Button{Text: "20", Unique: "count", Data: "20"},
		Button{Text: "Back", Unique: "back"},
	).Markup()
	if len(m.InlineKeyboard) != 2 || len(m.InlineKeyboard[0]) != 3 || len(m.InlineKeyboard[1]) != 1 {
		t.Fatalf("layout = %+v", m.InlineKeyboard)
	}
	b := m.InlineKeyboard[0][1]
	if b.Text != "10" || b.Unique != "count" || b.Data != "10" {
		t.Fatalf("button = %+v", b)
	}
}

func TestLayoutEmpty(t *testing.T) {
	var l Layout
	if l.Row().Markup() != nil {
		t.Fatal("empty layout must render no markup")
	}
}
