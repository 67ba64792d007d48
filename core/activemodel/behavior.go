package activemodel

import "context"

// Behavior hooks into a record's write lifecycle. Any hook returning an
// error aborts the operation and the remaining hooks.
//
// Save runs BeforeSave, then the insert or update hooks around the
// statement, then AfterSave.
type Behavior[M any] interface {
	BeforeInsert(ctx context.Context, r *Record[M]) error
	AfterInsert(ctx context.Context, r *Record[M], m M) error
	BeforeUpdate(ctx context.Context, r *Record[M]) error
	AfterUpdate(ctx context.Context, r *Record[M], m M) error
	BeforeSave(ctx context.Context, r *Record[M]) error
	AfterSave(ctx context.Context, r *Record[M], m M) error
	BeforeDelete(ctx context.Context, r *Record[M]) error
	AfterDelete(ctx context.Context, r *Record[M]) error
}

// NopBehavior implements every hook as a no-op. Embed it to override only
// some hooks.
type NopBehavior[M any] struct{}

func (NopBehavior[M]) BeforeInsert(context.Context, *Record[M]) error   { return nil }
func (NopBehavior[M]) AfterInsert(context.Context, *Record[M], M) error { return nil }
func (NopBehavior[M]) BeforeUpdate(context.Context, *Record[M]) error   { return nil }
func (NopBehavior[M]) AfterUpdate(context.Context, *Record[M], M) error { return nil }
func (NopBehavior[M]) BeforeSave(context.Context, *Record[M]) error     { return nil }
func (NopBehavior[M]) AfterSave(context.Context, *Record[M], M) error   { return nil }
func (NopBehavior[M]) BeforeDelete(context.Context, *Record[M]) error   { return nil }
func (NopBehavior[M]) AfterDelete(context.Context, *Record[M]) error    { return nil }
