package server

import "cubearena/protocol"

// Registry 会话登记表：连接 id → 玩家记录，是“谁在世界里”的唯一事实来源
// 记录保持插入有序，保证回填与遍历顺序稳定、可复现
// 仅允许在中枢事件循环内调用，无内部加锁
type Registry struct {
	records map[string]*protocol.PlayerRecord
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{records: make(map[string]*protocol.PlayerRecord)}
}

// Get 按 id 取记录
func (r *Registry) Get(id string) (*protocol.PlayerRecord, bool) {
	rec, ok := r.records[id]
	return rec, ok
}

// Put 写入记录；新 id 追加到序列尾部
func (r *Registry) Put(rec *protocol.PlayerRecord) {
	if _, ok := r.records[rec.ID]; !ok {
		r.order = append(r.order, rec.ID)
	}
	r.records[rec.ID] = rec
}

// Remove 移除记录并返回被移除的内容
func (r *Registry) Remove(id string) (*protocol.PlayerRecord, bool) {
	rec, ok := r.records[id]
	if !ok {
		return nil, false
	}
	delete(r.records, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return rec, true
}

// Len 在线记录数
func (r *Registry) Len() int { return len(r.records) }

// Each 按插入顺序遍历所有记录
func (r *Registry) Each(fn func(*protocol.PlayerRecord)) {
	for _, id := range r.order {
		fn(r.records[id])
	}
}
