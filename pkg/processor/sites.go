package processor

import (
	"errors"

	"github.com/wouteroostervld/decoshrink/pkg/js/lexer"
	"github.com/wouteroostervld/decoshrink/pkg/rewrite"
)

// FindSites returns the offsets of every `_ts_decorate(` call in the code of
// src. Occurrences inside strings, comments and templates are not sites, nor
// are the helper's own declaration and member calls such as
// `lib._ts_decorate(`. When src cannot be lexed to the end, the sites found
// before the error are returned along with it.
func FindSites(src string) ([]int, error) {
	var (
		sites     []int
		prev      lexer.Token
		candidate = -1
	)

	l := lexer.New(src, 0)
	for {
		tok, err := l.Next()
		if err != nil {
			if errors.Is(err, lexer.ErrUnexpectedChar) {
				// resume after the stray character
				l = lexer.New(src, l.Offset()+1)
				prev, candidate = lexer.Token{}, -1
				continue
			}
			return sites, err
		}
		if tok.Type == lexer.TokenEOF {
			return sites, nil
		}

		if candidate >= 0 && tok.Is("(") {
			sites = append(sites, candidate)
		}

		candidate = -1
		if tok.Type == lexer.TokenIdent && tok.Lexeme == rewrite.DecorateHelper &&
			!prev.Is(".") && !prev.Is("?.") && !prev.Is("function") {
			candidate = tok.Start
		}
		prev = tok
	}
}
