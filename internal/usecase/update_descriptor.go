package usecase

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/pluginpub/pluginpub/internal/repository"
)

// DescriptorRoot is the required root element of the plugin descriptor.
const DescriptorRoot = "plugin"

const versionAttr = "version"

// UpdateDescriptorUseCase rewrites the version attribute of the plugin descriptor.
type UpdateDescriptorUseCase struct {
	FsRepo repository.FileSystemRepository
	Path   string
}

// Execute sets the root version attribute to version and returns the value it replaced.
// Every byte outside the attribute value is written back unchanged.
func (uc *UpdateDescriptorUseCase) Execute(_ context.Context, version string) (string, error) {
	if version == "" {
		return "", fmt.Errorf("version cannot be empty")
	}
	data, err := repository.ReadFile(uc.FsRepo, uc.Path)
	if err != nil {
		return "", err
	}
	updated, previous, err := replaceRootVersion(data, version)
	if err != nil {
		return "", fmt.Errorf("failed to update %s: %w", uc.Path, err)
	}
	if err := repository.WriteFile(uc.FsRepo, uc.Path, updated); err != nil {
		return "", err
	}
	return previous, nil
}

func replaceRootVersion(doc []byte, version string) ([]byte, string, error) {
	if err := checkWellFormed(doc); err != nil {
		return nil, "", err
	}
	dec := xml.NewDecoder(bytes.NewReader(doc))
	for {
		start := dec.InputOffset()
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			return nil, "", fmt.Errorf("document has no root element")
		}
		if err != nil {
			return nil, "", fmt.Errorf("invalid XML: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		end := dec.InputOffset()
		if se.Name.Local != DescriptorRoot || se.Name.Space != "" {
			return nil, "", fmt.Errorf("root element is <%s>, expected <%s>", qualified(se.Name), DescriptorRoot)
		}
		previous, found := "", false
		for _, attr := range se.Attr {
			if attr.Name.Space == "" && attr.Name.Local == versionAttr {
				previous, found = attr.Value, true
				break
			}
		}
		if !found {
			return nil, "", fmt.Errorf("<%s> has no %s attribute", DescriptorRoot, versionAttr)
		}
		tag := doc[start:end]
		from, to, ok := attributeValueSpan(tag, versionAttr)
		if !ok {
			return nil, "", fmt.Errorf("could not locate %s attribute in <%s>", versionAttr, DescriptorRoot)
		}
		var escaped bytes.Buffer
		if err := xml.EscapeText(&escaped, []byte(version)); err != nil {
			return nil, "", err
		}
		out := make([]byte, 0, len(doc)+escaped.Len())
		out = append(out, doc[:int(start)+from]...)
		out = append(out, escaped.Bytes()...)
		out = append(out, doc[int(start)+to:]...)
		return out, previous, nil
	}
}

// checkWellFormed decodes the whole document so truncated or mismatched
// markup is reported before anything is written.
func checkWellFormed(doc []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("invalid XML: %w", err)
		}
	}
}

// attributeValueSpan returns the byte range of the value of attribute name
// inside a raw start tag, quotes excluded.
func attributeValueSpan(tag []byte, name string) (int, int, bool) {
	i := 1
	for i < len(tag) && !isSpace(tag[i]) && tag[i] != '>' && tag[i] != '/' {
		i++
	}
	for i < len(tag) {
		for i < len(tag) && isSpace(tag[i]) {
			i++
		}
		if i >= len(tag) || tag[i] == '>' || tag[i] == '/' {
			return 0, 0, false
		}
		nameStart := i
		for i < len(tag) && tag[i] != '=' && !isSpace(tag[i]) {
			i++
		}
		attrName := string(tag[nameStart:i])
		for i < len(tag) && isSpace(tag[i]) {
			i++
		}
		if i >= len(tag) || tag[i] != '=' {
			return 0, 0, false
		}
		i++
		for i < len(tag) && isSpace(tag[i]) {
			i++
		}
		if i >= len(tag) || (tag[i] != '"' && tag[i] != '\'') {
			return 0, 0, false
		}
		quote := tag[i]
		i++
		valueStart := i
		for i < len(tag) && tag[i] != quote {
			i++
		}
		if i >= len(tag) {
			return 0, 0, false
		}
		if attrName == name {
			return valueStart, i, true
		}
		i++
	}
	return 0, 0, false
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}
