// Package snapshot captures a directory subtree as an order-stable tree so
// tests can compare what the registry store wrote against an expected layout.
// Files become leaves holding their text, directories become nodes whose
// children are keyed and ordered by name. Trees render to YAML with nodes as
// mappings and leaves as strings.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/charlievieth/fastwalk"
)

// Kind 区分叶子（文件）与节点（目录）。
type Kind int

const (
	KindLeaf Kind = iota
	KindNode
)

// Tree 是显式带标签的变体：Kind 为 KindLeaf 时只有 Text，
// 为 KindNode 时只有 Children。
type Tree struct {
	Kind     Kind
	Text     string
	Children map[string]*Tree
}

// Leaf 构造文件叶子。
func Leaf(text string) *Tree {
	return &Tree{Kind: KindLeaf, Text: text}
}

// Node 构造目录节点；children 可为 nil。
func Node(children map[string]*Tree) *Tree {
	if children == nil {
		children = map[string]*Tree{}
	}
	return &Tree{Kind: KindNode, Children: children}
}

// Names 返回按字典序排序的子项名称，叶子返回 nil。
func (t *Tree) Names() []string {
	if t == nil || t.Kind != KindNode {
		return nil
	}
	names := make([]string, 0, len(t.Children))
	for name := range t.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Child 按名称取子项。
func (t *Tree) Child(name string) (*Tree, bool) {
	if t == nil || t.Kind != KindNode {
		return nil, false
	}
	child, ok := t.Children[name]
	return child, ok
}

// Equal 递归比较两棵树。
func (t *Tree) Equal(other *Tree) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Kind != other.Kind {
		return false
	}
	if t.Kind == KindLeaf {
		return t.Text == other.Text
	}
	if len(t.Children) != len(other.Children) {
		return false
	}
	for name, child := range t.Children {
		if !child.Equal(other.Children[name]) {
			return false
		}
	}
	return true
}

// BinaryFileError 表示文件内容不是合法的 UTF-8 文本。
type BinaryFileError struct {
	Path string
}

func (e *BinaryFileError) Error() string {
	return fmt.Sprintf("snapshot: %s is not valid UTF-8 text", e.Path)
}

type options struct {
	binaryDigest bool
}

// Option 调整 Capture 行为。
type Option func(*options)

// WithBinaryDigest 让非文本文件渲染为 "sha256:<hex> (<n> bytes)" 叶子，而不是报错。
func WithBinaryDigest() Option {
	return func(o *options) { o.binaryDigest = true }
}

// Capture 递归读取 path，返回其快照。
func Capture(path string, opts ...Option) (*Tree, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return capture(path, o)
}

func capture(root string, o options) (*Tree, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return readLeaf(root, o)
	}

	// fastwalk 并发回调，先按相对路径平铺收集，遍历结束后再组装成树。
	var mu sync.Mutex
	dirs := map[string]*Tree{".": Node(nil)}
	files := map[string]*Tree{}

	conf := fastwalk.Config{Follow: false}
	err = fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			mu.Lock()
			dirs[rel] = Node(nil)
			mu.Unlock()
			return nil
		}

		leaf, err := readLeaf(path, o)
		if err != nil {
			return err
		}
		mu.Lock()
		files[rel] = leaf
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	for rel, node := range dirs {
		if rel != "." {
			dirs[filepath.Dir(rel)].Children[filepath.Base(rel)] = node
		}
	}
	for rel, leaf := range files {
		dirs[filepath.Dir(rel)].Children[filepath.Base(rel)] = leaf
	}
	return dirs["."], nil
}

func readLeaf(path string, o options) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		if !o.binaryDigest {
			return nil, &BinaryFileError{Path: path}
		}
		return Leaf(digest(data)), nil
	}
	return Leaf(string(data)), nil
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("sha256:%s (%d bytes)", hex.EncodeToString(sum[:]), len(data))
}
