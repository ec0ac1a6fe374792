package opdoc

import (
	"fmt"
	"strings"
	"text/scanner"
)

var topLevelKeywords = map[string]bool{
	"query":        true,
	"mutation":     true,
	"subscription": true,
	"fragment":     true,
}

type parser struct {
	sc   scanner.Scanner
	tok  rune
	text string
}

func newParser(src, filename string) *parser {
	p := &parser{}
	p.sc.Init(strings.NewReader(src))
	p.sc.Filename = filename
	p.sc.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanStrings | scanner.ScanComments | scanner.SkipComments
	p.sc.Error = func(*scanner.Scanner, string) {} // parse failures are non-fatal; we surface our own warnings
	p.next()
	return p
}

func (p *parser) next() {
	p.tok = p.sc.Scan()
	p.text = p.sc.TokenText()
}

func (p *parser) isIdent(kw string) bool {
	return p.tok == scanner.Ident && p.text == kw
}

func (p *parser) isTopLevelKeyword() bool {
	return p.tok == scanner.Ident && topLevelKeywords[p.text]
}

// Parse extracts every operation and fragment definition from one
// GraphQL document source. Anonymous operations and malformed
// constructs are skipped with a warning rather than failing the whole
// file (spec §4.10).
func Parse(src, filename string) *Document {
	p := newParser(src, filename)
	doc := &Document{Fragments: make(map[string]FragmentDefinition)}

	for p.tok != scanner.EOF {
		switch {
		case p.isIdent("query"), p.isIdent("mutation"), p.isIdent("subscription"):
			op, anonymous, err := p.parseOperation()
			switch {
			case err != nil:
				doc.Warnings = append(doc.Warnings, fmt.Sprintf("%s: %v", filename, err))
				p.resync()
			case anonymous:
				doc.Warnings = append(doc.Warnings, fmt.Sprintf("%s: skipping anonymous operation", filename))
			default:
				doc.Operations = append(doc.Operations, op)
			}
		case p.isIdent("fragment"):
			frag, err := p.parseFragment()
			if err != nil {
				doc.Warnings = append(doc.Warnings, fmt.Sprintf("%s: %v", filename, err))
				p.resync()
				continue
			}
			doc.Fragments[frag.Name] = frag
		default:
			p.next()
		}
	}
	return doc
}

func (p *parser) resync() {
	p.next()
	for p.tok != scanner.EOF && !p.isTopLevelKeyword() {
		p.next()
	}
}

func (p *parser) parseOperation() (Operation, bool, error) {
	opType := p.text
	p.next()

	name := ""
	if p.tok == scanner.Ident {
		name = p.text
		p.next()
	}

	var vars []VariableDefinition
	if p.tok == '(' {
		var err error
		vars, err = p.parseVariableDefinitions()
		if err != nil {
			return Operation{}, false, err
		}
	}

	p.skipDirectives()

	if p.tok != '{' {
		return Operation{}, false, fmt.Errorf("expected selection set, got %q", p.text)
	}
	sel, err := p.parseSelectionSet()
	if err != nil {
		return Operation{}, false, err
	}

	if name == "" {
		return Operation{}, true, nil
	}
	return Operation{Type: opType, Name: name, Variables: vars, SelectionSet: sel}, false, nil
}

func (p *parser) parseFragment() (FragmentDefinition, error) {
	p.next() // consume 'fragment'
	if p.tok != scanner.Ident {
		return FragmentDefinition{}, fmt.Errorf("expected fragment name, got %q", p.text)
	}
	name := p.text
	p.next()

	if !p.isIdent("on") {
		return FragmentDefinition{}, fmt.Errorf("expected 'on' in fragment %s, got %q", name, p.text)
	}
	p.next()

	if p.tok != scanner.Ident {
		return FragmentDefinition{}, fmt.Errorf("expected type condition in fragment %s", name)
	}
	typeCondition := p.text
	p.next()

	p.skipDirectives()

	if p.tok != '{' {
		return FragmentDefinition{}, fmt.Errorf("expected selection set in fragment %s", name)
	}
	sel, err := p.parseSelectionSet()
	if err != nil {
		return FragmentDefinition{}, err
	}
	return FragmentDefinition{Name: name, TypeCondition: typeCondition, SelectionSet: sel}, nil
}

func (p *parser) parseVariableDefinitions() ([]VariableDefinition, error) {
	p.next() // consume '('
	var vars []VariableDefinition
	for p.tok != ')' {
		if p.tok == scanner.EOF {
			return nil, fmt.Errorf("unterminated variable list")
		}
		if p.tok != '$' {
			return nil, fmt.Errorf("expected '$', got %q", p.text)
		}
		p.next()
		if p.tok != scanner.Ident {
			return nil, fmt.Errorf("expected variable name, got %q", p.text)
		}
		varName := p.text
		p.next()

		if p.tok != ':' {
			return nil, fmt.Errorf("expected ':' after $%s", varName)
		}
		p.next()

		typ, required, err := p.parseTypeRef()
		if err != nil {
			return nil, err
		}

		if p.tok == '=' {
			p.next()
			p.skipValue()
		}
		p.skipDirectives()

		vars = append(vars, VariableDefinition{Name: varName, Type: typ, Required: required})
		if p.tok == ',' {
			p.next()
		}
	}
	p.next() // consume ')'
	return vars, nil
}

func (p *parser) parseTypeRef() (string, bool, error) {
	var name string
	if p.tok == '[' {
		p.next()
		inner, innerRequired, err := p.parseTypeRef()
		if err != nil {
			return "", false, err
		}
		if p.tok != ']' {
			return "", false, fmt.Errorf("expected ']', got %q", p.text)
		}
		p.next()
		suffix := ""
		if innerRequired {
			suffix = "!"
		}
		name = "[" + inner + suffix + "]"
	} else {
		if p.tok != scanner.Ident {
			return "", false, fmt.Errorf("expected type name, got %q", p.text)
		}
		name = p.text
		p.next()
	}

	required := false
	if p.tok == '!' {
		required = true
		p.next()
	}
	return name, required, nil
}

func (p *parser) parseSelectionSet() ([]Selection, error) {
	p.next() // consume '{'
	var sels []Selection
	for p.tok != '}' {
		if p.tok == scanner.EOF {
			return nil, fmt.Errorf("unterminated selection set")
		}
		if p.consumeSpread() {
			if p.isIdent("on") {
				p.next()
				typeCondition := p.text
				p.next()
				p.skipDirectives()
				sub, err := p.parseSelectionSet()
				if err != nil {
					return nil, err
				}
				sels = append(sels, Selection{InlineFragmentOn: typeCondition, SelectionSet: sub})
			} else {
				fragName := p.text
				p.next()
				sels = append(sels, Selection{FragmentSpread: fragName})
			}
			continue
		}

		if p.tok != scanner.Ident {
			return nil, fmt.Errorf("expected field name, got %q", p.text)
		}
		name := p.text
		p.next()

		alias := ""
		if p.tok == ':' {
			alias = name
			p.next()
			if p.tok != scanner.Ident {
				return nil, fmt.Errorf("expected field name after alias %s:", alias)
			}
			name = p.text
			p.next()
		}

		if p.tok == '(' {
			p.skipBalanced('(', ')')
		}
		p.skipDirectives()

		var sub []Selection
		if p.tok == '{' {
			var err error
			sub, err = p.parseSelectionSet()
			if err != nil {
				return nil, err
			}
		}
		sels = append(sels, Selection{Name: name, Alias: alias, SelectionSet: sub})
	}
	p.next() // consume '}'
	return sels, nil
}

func (p *parser) consumeSpread() bool {
	if p.tok != '.' {
		return false
	}
	p.next()
	if p.tok == '.' {
		p.next()
	}
	if p.tok == '.' {
		p.next()
	}
	return true
}

func (p *parser) skipDirectives() {
	for p.tok == '@' {
		p.next() // consume '@'
		p.next() // consume directive name
		if p.tok == '(' {
			p.skipBalanced('(', ')')
		}
	}
}

func (p *parser) skipBalanced(open, close rune) {
	depth := 0
	for {
		switch p.tok {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				p.next()
				return
			}
		case scanner.EOF:
			return
		}
		p.next()
	}
}

func (p *parser) skipValue() {
	switch p.tok {
	case '[':
		p.skipBalanced('[', ']')
	case '{':
		p.skipBalanced('{', '}')
	case '$':
		p.next()
		p.next()
	default:
		p.next()
	}
}
