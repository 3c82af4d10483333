// Package keyboard builds inline keyboards row by row.
package keyboard

import tele "gopkg.in/telebot.v4"

// Button is one inline button. Unique is the callback key the router
// dispatches on and Data its payload.
type Button struct {
	Text   string
	Unique string
	Data   string
}

// Layout accumulates rows of buttons.
type Layout struct {
	rows [][]Button
}

// Row appends one row; empty rows are ignored.
func (l *Layout) Row(btns ...Button) *Layout {
	if len(btns) > 0 {
		l.rows = append(l.rows, btns)
	}
	return l
}

// Wrap appends btns as consecutive rows of at most perRow buttons.
func (l *Layout) Wrap(perRow int, btns ...Button) *Layout {
	perRow = max(perRow, 1)
	for len(btns) > 0 {
		n := min(perRow, len(btns))
		l.Row(btns[:n]...)
		btns = btns[n:]
	}
	return l
}

// Markup renders the layout; it returns nil when there are no rows.
func (l *Layout) Markup() *tele.ReplyMarkup {
	if len(l.rows) == 0 {
		return nil
	}
	m := &tele.ReplyMarkup{}
	m.InlineKeyboard = make([][]tele.InlineButton, 0, len(l.rows))
	for _, row := range l.rows {
		out := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			out = append(out, *m.Data(b.Text, b.Unique, b.Data).Inline())
		}
		m.InlineKeyboard = append(m.InlineKeyboard, out)
	}
	return m
}
