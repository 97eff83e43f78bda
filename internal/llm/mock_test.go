package llm

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Create(ctx context.Context, req Request) (*Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Response), args.Error(1)
}

// primaryCompleter records which entry point served each call.
type primaryCompleter struct {
	viaCreate  []Request
	viaPrimary []Request
	resp       *Response
	errs       []error
}

func (p *primaryCompleter) next() error {
	if len(p.errs) == 0 {
		return nil
	}
	err := p.errs[0]
	p.errs = p.errs[1:]
	return err
}

func (p *primaryCompleter) Create(_ context.Context, req Request) (*Response, error) {
	p.viaCreate = append(p.viaCreate, req)
	if err := p.next(); err != nil {
		return nil, err
	}
	return p.resp, nil
}

func (p *primaryCompleter) CreatePrimary(_ context.Context, req Request) (*Response, error) {
	p.viaPrimary = append(p.viaPrimary, req)
	if err := p.next(); err != nil {
		return nil, err
	}
	return p.resp, nil
}

func textResponse(provider, text string) *Response {
	return &Response{
		Provider: provider,
		Blocks:   []Block{{Kind: BlockText, Text: text}},
		Usage:    Usage{InputTokens: 10, OutputTokens: 5},
	}
}
