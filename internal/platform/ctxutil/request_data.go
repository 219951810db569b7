package ctxutil

import "context"

type requestDataKey struct{}

// RequestData carries the authenticated caller for the lifetime of a request.
type RequestData struct {
	TokenString  string
	RefreshToken string
	UserID       int64
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	val := ctx.Value(requestDataKey{})
	if rd, ok := val.(*RequestData); ok {
		return rd
	}
	return nil
}
