package h264

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	DefaultChunkSize = 16384
	MinChunkSize     = 8
	MaxChunkSize     = 64 << 20
)

type parserState int

const (
	stateIdle parserState = iota
	statePending
	stateDone
)

type Option func(*Parser) error

func WithChunkSize(n int) Option {
	return func(p *Parser) error {
		if n < MinChunkSize {
			return fmt.Errorf("%w: %d < %d", ErrInvalidChunkSize, n, MinChunkSize)
		}
		if n > MaxChunkSize {
			return fmt.Errorf("%w: %d > %d", ErrInvalidChunkSize, n, MaxChunkSize)
		}
		p.chunkSize = n
		return nil
	}
}

func WithSniffSize(n int) Option {
	return func(p *Parser) error {
		if n <= 0 {
			return ErrInvalidSniffSize
		}
		p.sniffSize = n
		return nil
	}
}

// Parser splits an Annex-B stream into NAL units, reading it in fixed-size chunks.
// A Parser is single use: once Parse returns, the input is consumed.
type Parser struct {
	rs     io.ReadSeeker
	closer io.Closer

	chunkSize int
	sniffSize int

	startCodeLength int
	firstStartCode  int64

	state   parserState
	residue *Residue
}

// Open opens the file at path and sniffs its start code width.
func Open(path string, opts ...Option) (*Parser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error while opening %s: %w", path, err)
	}

	p, err := NewParser(f, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	p.closer = f
	return p, nil
}

func NewParser(rs io.ReadSeeker, opts ...Option) (*Parser, error) {
	p := &Parser{
		rs:        rs,
		chunkSize: DefaultChunkSize,
		sniffSize: DefaultSniffSize,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	length, offset, err := SniffStartCodeLength(rs, p.sniffSize)
	if err != nil {
		return nil, err
	}
	p.startCodeLength = length
	p.firstStartCode = offset
	return p, nil
}

func (p *Parser) StartCodeLength() int {
	return p.startCodeLength
}

// FirstStartCode is the stream offset of the first start code found by the sniffer.
func (p *Parser) FirstStartCode() int64 {
	return p.firstStartCode
}

// Parse consumes the whole input and returns its NAL units in stream order.
// ctx is checked between chunks.
func (p *Parser) Parse(ctx context.Context) ([]NALUnit, error) {
	if p.state == stateDone {
		return nil, ErrParserFinished
	}

	var units []NALUnit
	chunk := make([]byte, p.chunkSize)
	offset := p.firstStartCode

	for {
		if err := ctx.Err(); err != nil {
			p.finish()
			return nil, err
		}

		n, err := io.ReadFull(p.rs, chunk)
		if n > 0 {
			closed, residue, perr := ProcessChunk(p.startCodeLength, p.residue, chunk[:n], offset)
			if perr != nil {
				p.finish()
				return nil, perr
			}
			units = append(units, closed...)
			p.residue = residue
			if residue != nil {
				p.state = statePending
			} else {
				p.state = stateIdle
			}
			offset += int64(n)
		}

		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			p.finish()
			return nil, fmt.Errorf("error while reading chunk at offset %d: %w", offset, err)
		}
	}

	var (
		last *NALUnit
		err  error
	)
	if p.state == statePending {
		if last, err = Flush(p.startCodeLength, p.residue); err != nil {
			p.finish()
			return nil, err
		}
	}
	p.finish()
	if last != nil {
		units = append(units, *last)
	}
	return units, nil
}

func (p *Parser) finish() {
	p.residue = nil
	p.state = stateDone
}

func (p *Parser) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}
