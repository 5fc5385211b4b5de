package server

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var whiteListIPs = []string{
	"127.0.0.1",
}

// ipInterceptor rejects requests from clients exceeding their rate.
// Addresses in the white list are never limited.
func (s *Server) ipInterceptor(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	whiteList := make(map[string]struct{}, len(whiteListIPs))
	for _, ip := range whiteListIPs {
		whiteList[ip] = struct{}{}
	}
	return func(ctx *fasthttp.RequestCtx) {
		ip := ctx.RemoteIP().String()
		if _, ok := whiteList[ip]; !ok && s.limiter != nil && !s.limiter.allow(ip) {
			s.logger.Debug("ip limited", zap.String("ip", ip))
			s.metrics.requests.WithLabelValues(string(ctx.Path()), "limited").Inc()
			writeResult(ctx, http.StatusTooManyRequests, ErrLimited, "request too frequently", nil)
			return
		}
		next(ctx)
	}
}
