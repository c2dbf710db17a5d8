package directive

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/n2code/tagger/internal/report"
)

const localTagPrefix = "!"

// ElementError describes the first sequence element that could not be decoded.
type ElementError struct {
	Position int //1-based, 0 if the document itself is not a sequence
	Line     int
	Reason   string
}

func (e *ElementError) Error() string {
	if e.Position == 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("element #%d (line %d): %s", e.Position, e.Line, e.Reason)
}

func (e *ElementError) Unwrap() error {
	return report.ErrMalformedDirective
}

// Parse decodes a sidecar document into its directives.
// An empty document yields no directives. On a malformed element the directives preceding it are
// returned together with an *ElementError.
func Parse(data []byte) ([]Directive, error) {
	var document yaml.Node
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, &ElementError{Reason: err.Error()}
	}
	if document.Kind == 0 || len(document.Content) == 0 {
		return nil, nil
	}
	root := resolveAlias(document.Content[0])
	switch {
	case root.Kind == yaml.ScalarNode && root.Tag == "!!null":
		return nil, nil
	case root.Kind != yaml.SequenceNode:
		return nil, &ElementError{Line: root.Line, Reason: "document is not a sequence"}
	}

	directives := make([]Directive, 0, len(root.Content))
	for i, element := range root.Content {
		d, err := decodeElement(resolveAlias(element))
		if err != nil {
			return directives, &ElementError{Position: i + 1, Line: element.Line, Reason: err.Error()}
		}
		directives = append(directives, d)
	}
	return directives, nil
}

// IsMalformed reports whether err stems from an undecodable sidecar.
func IsMalformed(err error) bool {
	return errors.Is(err, report.ErrMalformedDirective)
}

func decodeElement(node *yaml.Node) (Directive, error) {
	switch {
	case node.Tag == localTagPrefix+TagName:
		return decodeTag(node)
	case node.Tag == localTagPrefix+DirTagName:
		return decodeDirTag(node)
	case node.Kind == yaml.MappingNode && len(node.Content) == 2:
		key, value := node.Content[0], resolveAlias(node.Content[1])
		switch key.Value {
		case TagName:
			return decodeTag(value)
		case DirTagName:
			return decodeDirTag(value)
		}
		return nil, fmt.Errorf("unknown directive %q", key.Value)
	}
	return nil, fmt.Errorf("expected !%s or !%s, got %s", TagName, DirTagName, describe(node))
}

func decodeTag(node *yaml.Node) (Directive, error) {
	if node.Kind != yaml.SequenceNode || len(node.Content) != 2 {
		return nil, fmt.Errorf("%s expects [<regex>, [<tag>, ...]], got %s", TagName, describe(node))
	}
	pattern := resolveAlias(node.Content[0])
	if pattern.Kind != yaml.ScalarNode || pattern.Tag == "!!null" {
		return nil, fmt.Errorf("%s pattern must be a string, got %s", TagName, describe(pattern))
	}
	tags, err := decodeTagList(resolveAlias(node.Content[1]))
	if err != nil {
		return nil, err
	}
	return NewTag(pattern.Value, tags...), nil
}

func decodeDirTag(node *yaml.Node) (Directive, error) {
	tags, err := decodeTagList(node)
	if err != nil {
		return nil, err
	}
	return NewDirTag(tags...), nil
}

func decodeTagList(node *yaml.Node) ([]string, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("tag list must be a sequence, got %s", describe(node))
	}
	tags := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		item = resolveAlias(item)
		if item.Kind != yaml.ScalarNode || item.Tag == "!!null" || item.Value == "" {
			return nil, fmt.Errorf("tags must be non-empty strings, got %s", describe(item))
		}
		tags = append(tags, item.Value)
	}
	return tags, nil
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func describe(node *yaml.Node) string {
	switch node.Kind {
	case yaml.SequenceNode:
		return fmt.Sprintf("sequence of %d", len(node.Content))
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return "null"
		}
		return fmt.Sprintf("scalar %q", node.Value)
	}
	return "unsupported node"
}

// Node renders the directive in its tagged flow form, e.g. !DirTag [a, b].
func Node(d Directive) *yaml.Node {
	switch v := d.(type) {
	case Tag:
		return &yaml.Node{
			Kind:    yaml.SequenceNode,
			Tag:     localTagPrefix + TagName,
			Style:   yaml.FlowStyle,
			Content: []*yaml.Node{stringNode(v.Pattern), tagListNode(v.Tags)},
		}
	case DirTag:
		node := tagListNode(v.Tags)
		node.Tag = localTagPrefix + DirTagName
		return node
	}
	panic(fmt.Sprintf("unknown directive type %T", d))
}

// MarshalEntry renders the directive as one block sequence entry ("- !Tag [...]\n").
func MarshalEntry(d Directive) ([]byte, error) {
	entry := &yaml.Node{Kind: yaml.SequenceNode, Content: []*yaml.Node{Node(d)}}
	return yaml.Marshal(entry)
}

func tagListNode(tags []string) *yaml.Node {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, tag := range tags {
		node.Content = append(node.Content, stringNode(tag))
	}
	return node
}

func stringNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}
