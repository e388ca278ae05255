// Package parse turns a query string into a value tree.
//
// Grammar:
//
//	input = pair ("&" pair)*
//	pair  = path ["=" value]
//	path  = segment ("." segment)*
//
// A segment is any run of bytes other than '.', '=' and '&'. The value
// runs to the next '&'. Each segment and each value is percent-decoded on
// its own. Malformed encoding and malformed keys fail the whole parse;
// conflicting keys poison the affected subtree and parsing continues.
//
// This package is internal to structqs.
package parse

import (
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/structqs/errors"
	"github.com/wippyai/structqs/internal/scan"
	"github.com/wippyai/structqs/internal/tree"
)

type Options struct {
	Logger *zap.Logger
	// MaxInputSize limits the input length in bytes. Zero means unlimited.
	MaxInputSize int
	// MaxDepth limits the number of segments in one key. Zero means unlimited.
	MaxDepth int
}

type Parser struct {
	sc   *scan.Scanner
	root *tree.Node
	log  *zap.Logger
	segs []string
	opts Options
}

// Parse builds the value tree for src. The root is always a record.
func Parse(src string, opts Options) (*tree.Node, error) {
	if opts.MaxInputSize > 0 && len(src) > opts.MaxInputSize {
		return nil, errors.New(errors.PhaseParse, errors.KindOverflow).
			Value(len(src)).
			Detail("input of %d bytes exceeds limit of %d", len(src), opts.MaxInputSize).
			Build()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	p := &Parser{
		sc:   scan.New(src),
		root: tree.NewRecord(),
		log:  log,
		opts: opts,
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.root, nil
}

func (p *Parser) parse() error {
	for {
		c, ok := p.sc.Peek()
		if !ok {
			return nil
		}
		if c == '&' {
			p.sc.Advance()
			continue
		}
		if err := p.parsePair(); err != nil {
			return err
		}
	}
}

func (p *Parser) parsePair() error {
	start := p.sc.Pos()
	if c, _ := p.sc.Peek(); c == '=' {
		return errors.Structural(start, "empty key")
	}

	segs, err := p.parsePath()
	if err != nil {
		return err
	}

	value := tree.Borrowed("")
	if c, ok := p.sc.Peek(); ok && c == '=' {
		p.sc.Advance()
		p.sc.Mark()
		stop := p.sc.SkipUntil("&")
		text, owned, err := p.sc.TakeDecoded(stop)
		if err != nil {
			return err
		}
		value = makeText(text, owned)
	}

	if conflict := p.root.Insert(segs, value); conflict != nil {
		p.log.Debug("ambiguous query key",
			zap.String("key", strings.Join(conflict.Path, ".")),
			zap.String("reason", conflict.Reason),
			zap.Int("offset", start))
	}
	return nil
}

// parsePath reads segments up to '=', '&' or the end of input. The
// returned slice is reused by the next call.
func (p *Parser) parsePath() ([]string, error) {
	segs := p.segs[:0]
	for {
		p.sc.Mark()
		stop := p.sc.SkipUntil(".=&")
		if stop == p.sc.Marked() {
			return nil, errors.Structural(stop, "empty key segment")
		}
		seg, _, err := p.sc.TakeDecoded(stop)
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
		if p.opts.MaxDepth > 0 && len(segs) > p.opts.MaxDepth {
			return nil, errors.New(errors.PhaseParse, errors.KindOverflow).
				At(stop).
				Path(append([]string(nil), segs...)...).
				Detail("key nests deeper than %d segments", p.opts.MaxDepth).
				Build()
		}

		c, ok := p.sc.Peek()
		if !ok || c != '.' {
			p.segs = segs
			return segs, nil
		}
		p.sc.Advance()
	}
}

func makeText(s string, owned bool) tree.Text {
	if owned {
		return tree.Owned(s)
	}
	return tree.Borrowed(s)
}
