package tools

import (
	"fmt"
	"sync"

	"github.com/ilkoid/poncho-chat/pkg/utils"
)

// Notices собирает операторские уведомления одного вызова.
//
// Каждое уведомление дублируется в лог на уровне WARN.
type Notices struct {
	mu    sync.Mutex
	items []string
}

var _ Notifier = (*Notices)(nil)

// Notify добавляет уведомление.
func (n *Notices) Notify(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	utils.Warn(msg)

	n.mu.Lock()
	n.items = append(n.items, msg)
	n.mu.Unlock()
}

// Items возвращает копию накопленных уведомлений.
func (n *Notices) Items() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]string, len(n.items))
	copy(out, n.items)
	return out
}
