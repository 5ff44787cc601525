package audit

import "go.uber.org/fx"

var Module = fx.Options(
	fx.Provide(NewService),
	fx.Provide(NewRetention),
	fx.Invoke(func(*Retention) {}),
)
