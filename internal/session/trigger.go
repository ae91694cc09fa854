package session

import "context"

type Capturer interface {
	Start(ctx context.Context, mode Mode) error
	Stop(ctx context.Context) error
}

type PushToTalk struct {
	c Capturer
}

func NewPushToTalk(c Capturer) PushToTalk {
	return PushToTalk{c: c}
}

func (p PushToTalk) Press(ctx context.Context) error {
	return p.c.Start(ctx, ModePushToTalk)
}

func (p PushToTalk) Release(ctx context.Context) error {
	return p.c.Stop(ctx)
}

type Continuous struct {
	c Capturer
}

func NewContinuous(c Capturer) Continuous {
	return Continuous{c: c}
}

func (k Continuous) Begin(ctx context.Context) error {
	return k.c.Start(ctx, ModeContinuous)
}

func (k Continuous) End(ctx context.Context) error {
	return k.c.Stop(ctx)
}
