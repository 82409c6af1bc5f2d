package log

import "go.uber.org/zap"

// L is the process logger; Init must run before anything logs.
var L = zap.NewNop()

func Init(prod bool) (*zap.Logger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if prod {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	L = l
	zap.ReplaceGlobals(l)
	return l, nil
}

func Sync() {
	_ = L.Sync()
}
