package pkgmodel

// PackageContents 是不透明的制品字节，存储层既不解析也不校验其结构。
type PackageContents struct {
	data []byte
}

// ContentsFromBytes 复制调用方的切片，之后的修改不会影响已构造的内容。
func ContentsFromBytes(data []byte) PackageContents {
	return PackageContents{data: append([]byte(nil), data...)}
}

// Bytes 返回内容副本。
func (c PackageContents) Bytes() []byte {
	return append([]byte(nil), c.data...)
}

func (c PackageContents) Len() int { return len(c.data) }
