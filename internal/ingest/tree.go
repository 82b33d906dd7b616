package ingest

import "encoding/json"

// RawNode запись источника после разбора: имя, доп. данные уровня
// (промпты) и вложенные дети. Engine не видит нетипизированных map.
type RawNode struct {
	Name     string
	Payload  json.RawMessage
	Children []RawNode
}

// Count число узлов поддерева вместе с корнем.
func (n RawNode) Count() int {
	c := 1
	for _, ch := range n.Children {
		c += ch.Count()
	}
	return c
}
