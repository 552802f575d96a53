package snapshot

import (
	"fmt"

	"github.com/go-test/deep"
	"gopkg.in/yaml.v3"
)

// MarshalYAML 将叶子渲染为字符串、节点渲染为按名称排序的 mapping。
func (t *Tree) MarshalYAML() (interface{}, error) {
	return t.yamlNode(), nil
}

func (t *Tree) yamlNode() *yaml.Node {
	if t.Kind == KindLeaf {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t.Text}
	}
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, name := range t.Names() {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
			t.Children[name].yamlNode(),
		)
	}
	return node
}

// Render 返回整棵树的 YAML 文本，可直接与 golden 文件比较。
func (t *Tree) Render() (string, error) {
	out, err := yaml.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("render snapshot: %w", err)
	}
	return string(out), nil
}

// Diff 列出两棵树的差异，相同时返回 nil。
func Diff(want, got *Tree) []string {
	return deep.Equal(plain(want), plain(got))
}

// plain 把 Tree 转成只含 string/map 的结构，使 deep 的输出路径与目录路径一致。
func plain(t *Tree) interface{} {
	if t == nil {
		return nil
	}
	if t.Kind == KindLeaf {
		return t.Text
	}
	m := make(map[string]interface{}, len(t.Children))
	for name, child := range t.Children {
		m[name] = plain(child)
	}
	return m
}
