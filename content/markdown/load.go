// Package markdown carrega artigos de um diretório de markdown e os indexa no
// armazenamento vetorial.
package markdown

import (
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"docsearch-gateway/content"

	"gopkg.in/yaml.v3"
)

// frontmatter são os campos lidos do cabeçalho YAML.
type frontmatter struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	Draft       bool     `yaml:"draft"`
}

var delimiter = []byte("---")

// Load percorre fsys e retorna os artigos .md/.mdx publicados, ordenados por slug.
// Dois arquivos com o mesmo slug (ex.: "guias.md" e "guias/index.md") são erro EINVALID.
func Load(fsys fs.FS) ([]*content.Article, error) {
	articles := []*content.Article{}
	seen := make(map[string]string)
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		ext := path.Ext(p)
		if ext != ".md" && ext != ".mdx" {
			return nil
		}

		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		a, err := Parse(p, raw)
		if err != nil {
			return err
		}
		if a == nil {
			return nil
		}
		if prev, ok := seen[a.Slug]; ok {
			return content.Errorf(content.EINVALID, "duplicate slug %q: %s and %s", a.Slug, prev, p)
		}
		seen[a.Slug] = p
		articles = append(articles, a)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(articles, func(i, j int) bool { return articles[i].Slug < articles[j].Slug })
	return articles, nil
}

// Parse monta o artigo de um arquivo. Retorna nil para rascunhos.
func Parse(p string, raw []byte) (*content.Article, error) {
	fm, body, err := splitFrontmatter(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	if fm.Draft {
		return nil, nil
	}

	slug := Slug(p)
	title := fm.Title
	if title == "" {
		title = firstHeading(body)
	}
	if title == "" {
		title = path.Base(slug)
	}

	tags := fm.Tags
	if tags == nil {
		tags = []string{}
	}

	return &content.Article{
		Slug:        slug,
		Title:       title,
		Folder:      Folder(p),
		Tags:        tags,
		Description: fm.Description,
		Body:        strings.TrimSpace(body),
	}, nil
}

// Slug é o caminho sem extensão. "pasta/index" vira "pasta".
func Slug(p string) string {
	p = strings.TrimPrefix(path.Clean(p), "/")
	slug := strings.TrimSuffix(p, path.Ext(p))
	if dir, base := path.Split(slug); base == "index" && dir != "" {
		return strings.TrimSuffix(dir, "/")
	}
	return slug
}

// Folder é o primeiro segmento do caminho, ou "" para arquivos na raiz.
func Folder(p string) string {
	p = strings.TrimPrefix(path.Clean(p), "/")
	if i := strings.IndexByte(p, '/'); i > 0 {
		return p[:i]
	}
	return ""
}

func splitFrontmatter(raw []byte) (frontmatter, string, error) {
	var fm frontmatter

	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if !bytes.HasPrefix(raw, delimiter) {
		return fm, string(raw), nil
	}

	rest := raw[len(delimiter):]
	nl := bytes.IndexByte(rest, '\n')
	if nl < 0 || len(bytes.TrimSpace(rest[:nl])) != 0 {
		// "---" no começo sem quebra de linha é conteúdo, não frontmatter.
		return fm, string(raw), nil
	}
	rest = rest[nl+1:]

	end := bytes.Index(rest, append([]byte("\n"), delimiter...))
	var head, body []byte
	switch {
	case bytes.HasPrefix(rest, delimiter):
		head, body = nil, rest[len(delimiter):]
	case end >= 0:
		head, body = rest[:end], rest[end+1+len(delimiter):]
	default:
		return fm, "", fmt.Errorf("unterminated frontmatter")
	}

	if err := yaml.Unmarshal(head, &fm); err != nil {
		return fm, "", fmt.Errorf("invalid frontmatter: %w", err)
	}
	return fm, string(body), nil
}

func firstHeading(body string) string {
	for line := range strings.Lines(body) {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return ""
}
