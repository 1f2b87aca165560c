package parser

import "strings"

type textSource struct{}

func (textSource) CanRead(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".txt")
}

func (textSource) Read(path string, _ ReadOptions) (string, error) {
	return readText(path)
}
