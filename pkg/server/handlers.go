package server

import (
	"fmt"

	"github.com/valyala/fasthttp"
)

func (s *Server) createDiscriminant(ctx *fasthttp.RequestCtx) (interface{}, error) {
	var req discriminantRequest
	if err := decodeBody(ctx, &req); err != nil {
		return nil, err
	}
	if s.maxBits > 0 && req.Bits > s.maxBits {
		return nil, fmt.Errorf("%w: discriminant above %d bits", errBadRequest, s.maxBits)
	}
	d, err := s.engine.CreateDiscriminant(req.Seed, req.Bits)
	if err != nil {
		return nil, err
	}
	return &discriminantResult{Discriminant: d}, nil
}

func (s *Server) hash(ctx *fasthttp.RequestCtx) (interface{}, error) {
	var req hashRequest
	if err := decodeBody(ctx, &req); err != nil {
		return nil, err
	}
	d, err := s.discriminant(req.Discriminant)
	if err != nil {
		return nil, err
	}
	x, err := s.hasher.Hash(req.Seed, d)
	if err != nil {
		return nil, err
	}
	return &hashResult{Form: x}, nil
}

func (s *Server) evaluate(ctx *fasthttp.RequestCtx) (interface{}, error) {
	var req evaluateRequest
	if err := decodeBody(ctx, &req); err != nil {
		return nil, err
	}
	if err := s.checkIterations(req.Iterations); err != nil {
		return nil, err
	}
	d, err := s.discriminant(req.Discriminant)
	if err != nil {
		return nil, err
	}
	y, proof, err := s.engine.Evaluate(d.Bytes(), req.X, req.Iterations)
	if err != nil {
		return nil, err
	}
	s.metrics.evaluated.Add(float64(req.Iterations))
	return &evaluateResult{Y: y, Proof: proof}, nil
}

func (s *Server) verify(ctx *fasthttp.RequestCtx) (interface{}, error) {
	var req verifyRequest
	if err := decodeBody(ctx, &req); err != nil {
		return nil, err
	}
	if err := s.checkIterations(req.Iterations); err != nil {
		return nil, err
	}
	d, err := s.discriminant(req.Discriminant)
	if err != nil {
		return nil, err
	}
	return &verifyResult{Valid: s.engine.Verify(d.Bytes(), req.X, req.Y, req.Proof, req.Iterations)}, nil
}

func (s *Server) createSession(ctx *fasthttp.RequestCtx) (interface{}, error) {
	var req createSessionRequest
	if err := decodeBody(ctx, &req); err != nil {
		return nil, err
	}
	if err := s.checkIterations(req.Iterations); err != nil {
		return nil, err
	}
	if len(req.Inputs) > 0 && len(req.Seeds) > 0 {
		return nil, fmt.Errorf("%w: inputs and seeds are exclusive", errBadRequest)
	}
	d, err := s.discriminant(req.Discriminant)
	if err != nil {
		return nil, err
	}

	xs := make([][]byte, 0, len(req.Inputs)+len(req.Seeds))
	for _, x := range req.Inputs {
		xs = append(xs, x)
	}
	for i, seed := range req.Seeds {
		x, err := s.hasher.Hash(seed, d)
		if err != nil {
			return nil, fmt.Errorf("seed %d: %w", i, err)
		}
		xs = append(xs, x)
	}

	id, r, err := s.sessions.Create(d.Bytes(), xs, req.Iterations)
	if err != nil {
		return nil, err
	}
	return newSessionView(id, r), nil
}

func sessionID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue("id").(string)
	return id
}

func (s *Server) getSession(ctx *fasthttp.RequestCtx) (interface{}, error) {
	id := sessionID(ctx)
	r, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	return newSessionView(id, r), nil
}

func (s *Server) foldSession(ctx *fasthttp.RequestCtx) (interface{}, error) {
	var req foldRequest
	if err := decodeBody(ctx, &req); err != nil {
		return nil, err
	}
	id := sessionID(ctx)
	r, err := s.sessions.Fold(id, req.Index, req.Y)
	if err != nil {
		return nil, err
	}
	return newSessionView(id, r), nil
}

func (s *Server) proveSession(ctx *fasthttp.RequestCtx) (interface{}, error) {
	proof, err := s.sessions.Prove(sessionID(ctx))
	if err != nil {
		return nil, err
	}
	return &proofResult{Proof: proof}, nil
}

func (s *Server) verifySession(ctx *fasthttp.RequestCtx) (interface{}, error) {
	var req proofResult
	if err := decodeBody(ctx, &req); err != nil {
		return nil, err
	}
	ok, err := s.sessions.Verify(sessionID(ctx), req.Proof)
	if err != nil {
		return nil, err
	}
	return &verifyResult{Valid: ok}, nil
}

func (s *Server) listSessions(ctx *fasthttp.RequestCtx) (interface{}, error) {
	ids, err := s.sessions.List()
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (s *Server) deleteSession(ctx *fasthttp.RequestCtx) (interface{}, error) {
	if err := s.sessions.Delete(sessionID(ctx)); err != nil {
		return nil, err
	}
	return map[string]bool{"deleted": true}, nil
}
