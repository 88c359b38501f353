package index

import (
	"strings"

	"nyumbatz/internal/property"
)

// 文档注释：前缀树文本索引
// 背景：对标题、城市与设施词做分词后逐字符建树，路径上的每个节点都累积文档 id，
// 使任意前缀一次下降即可取到全部命中文档；用于搜索框的即输即查与补全。
// 约束：仅索引长度大于 2 的词；前缀短于 2 个字符直接返回空，避免高扇出低价值扫描。
type SearchTrie struct {
	root *trieNode
}

type trieNode struct {
	children map[rune]*trieNode
	ids      map[string]struct{}
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[rune]*trieNode)}
}

func NewSearchTrie() *SearchTrie {
	return &SearchTrie{root: newTrieNode()}
}

// Add: 索引一条房源文档（标题按空白分词，城市与每个设施各为一个词；统一小写）
func (t *SearchTrie) Add(p property.Property) {
	for _, tok := range strings.Fields(p.Title) {
		t.insert(tok, p.ID)
	}
	t.insert(p.City, p.ID)
	for _, a := range p.Amenities {
		t.insert(a, p.ID)
	}
}

func (t *SearchTrie) insert(token, id string) {
	token = strings.ToLower(strings.TrimSpace(token))
	if len([]rune(token)) <= 2 {
		return
	}
	node := t.root
	for _, ch := range token {
		next, ok := node.children[ch]
		if !ok {
			next = newTrieNode()
			node.children[ch] = next
		}
		node = next
		if node.ids == nil {
			node.ids = make(map[string]struct{})
		}
		node.ids[id] = struct{}{}
	}
}

// Search: 返回前缀命中的文档 id 集合；前缀不足 2 个字符或路径不存在返回空集
func (t *SearchTrie) Search(prefix string) map[string]struct{} {
	out := make(map[string]struct{})
	node, ok := t.descend(prefix)
	if !ok {
		return out
	}
	for id := range node.ids {
		out[id] = struct{}{}
	}
	return out
}

// Suggestions: 深度优先收集至多 limit 个不同的补全词
// 约束：children 为 map，遍历顺序不确定，因此补全顺序不承诺稳定，只承诺集合与数量上限；
// 词尾判定为 id 集非空的节点（所有被索引的词满足该条件）。
func (t *SearchTrie) Suggestions(prefix string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	node, ok := t.descend(prefix)
	if !ok {
		return nil
	}
	lowered := strings.ToLower(strings.TrimSpace(prefix))
	out := make([]string, 0, limit)
	var dfs func(n *trieNode, acc string)
	dfs = func(n *trieNode, acc string) {
		if len(out) >= limit {
			return
		}
		if len(n.ids) > 0 {
			out = append(out, acc)
		}
		for ch, child := range n.children {
			if len(out) >= limit {
				return
			}
			dfs(child, acc+string(ch))
		}
	}
	dfs(node, lowered)
	return out
}

func (t *SearchTrie) descend(prefix string) (*trieNode, bool) {
	lowered := strings.ToLower(strings.TrimSpace(prefix))
	runes := []rune(lowered)
	if len(runes) < 2 {
		return nil, false
	}
	node := t.root
	for _, ch := range runes {
		next, ok := node.children[ch]
		if !ok {
			return nil, false
		}
		node = next
	}
	return node, true
}
