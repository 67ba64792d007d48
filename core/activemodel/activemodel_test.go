package activemodel

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/artpar/lifeguard/core/executor"
	"github.com/artpar/lifeguard/core/executor/executortest"
	"github.com/artpar/lifeguard/core/identity"
	"github.com/artpar/lifeguard/core/query"
	"github.com/artpar/lifeguard/core/value"
)

type user struct {
	ID   int32
	Name string
}

type users struct{}

func (users) TableName() string { return "users" }
func (users) Columns() []query.ColumnDef {
	return []query.ColumnDef{
		{Name: "id", Kind: value.KindInt, AutoIncrement: true},
		{Name: "name", Kind: value.KindString},
		{Name: "bio", Kind: value.KindString, Nullable: true},
	}
}
func (users) PrimaryKey() identity.Identity { return identity.Unary("id") }
func (users) FromRow(row executor.Row) (user, error) {
	id, err := executor.Get[int32](row, "id")
	if err != nil {
		return user{}, err
	}
	name, err := executor.Get[string](row, "name")
	return user{ID: id, Name: name}, err
}

func userRows(id int32, name string) func(string, []any) ([]executor.Row, error) {
	return func(string, []any) ([]executor.Row, error) {
		return []executor.Row{executor.NewRow([]string{"id", "name", "bio"},
			[]value.Value{value.Int(id), value.String(name), value.Null(value.KindString)})}, nil
	}
}

func TestActiveValueStates(t *testing.T) {
	var zero ActiveValue
	if !zero.IsUnset() {
		t.Errorf("zero state = %s, want Unset", zero.State())
	}
	if _, ok := zero.IntoValue(); ok {
		t.Error("Unset should not yield a value")
	}

	set := SetValue(value.Int(3))
	if !set.IsSet() {
		t.Errorf("state = %s, want Set", set.State())
	}

	null := SetValue(value.Null(value.KindInt))
	if !null.IsNotSet() {
		t.Errorf("state = %s, want NotSet", null.State())
	}
	v, ok := null.IntoValue()
	if !ok || !v.Equal(value.Null(value.KindInt)) {
		t.Errorf("IntoValue = %v, %v; want Int(NULL), true", v, ok)
	}

	if !FromOptional(nil).IsNotSet() {
		t.Error("FromOptional(nil) should be NotSet")
	}

	v, ok = FromValue(uint16(9)).IntoValue()
	if !ok || !v.Equal(value.Int(9)) {
		t.Errorf("FromValue(uint16) = %v, want Int(9)", v)
	}
}

func TestRecordSetGet(t *testing.T) {
	r := New[user](users{})
	inputs := map[string]value.Value{
		"id":   value.Int(1),
		"name": value.String("ann"),
		"bio":  value.Null(value.KindString),
	}
	for col, v := range inputs {
		if err := r.Set(col, v); err != nil {
			t.Fatalf("Set(%s) failed: %v", col, err)
		}
		got, ok := r.Get(col)
		if !ok || !got.Equal(v) {
			t.Errorf("Get(%s) = %v, %v; want %v", col, got, ok, v)
		}
	}
	if !r.Field("bio").IsNotSet() {
		t.Errorf("bio state = %s, want NotSet", r.Field("bio").State())
	}

	err := r.Set("missing", value.Int(1))
	if !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("Set(missing) error = %v, want ColumnNotFound", err)
	}
	err = r.Set("name", value.Int(1))
	if !errors.Is(err, ErrInvalidValueType) {
		t.Errorf("Set(name, Int) error = %v, want InvalidValueType", err)
	}
	var ae *Error
	if errors.As(err, &ae) && (ae.Expected != "String" || ae.Column != "name") {
		t.Errorf("error = %+v", ae)
	}

	v, ok := r.Take("name")
	if !ok || !v.Equal(value.String("ann")) {
		t.Errorf("Take = %v, %v", v, ok)
	}
	if !r.Field("name").IsUnset() {
		t.Error("Take should leave the column Unset")
	}

	r.Reset()
	for col := range inputs {
		if !r.Field(col).IsUnset() {
			t.Errorf("%s not Unset after Reset", col)
		}
	}
}

func TestRecordToMap(t *testing.T) {
	r := New[user](users{})
	_ = r.Set("name", value.String("ann"))
	_ = r.SetNull("bio")
	got := r.ToMap()
	want := map[string]any{"name": "ann", "bio": nil}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToMap = %v, want %v", got, want)
	}
	b, err := r.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	if string(b) != `{"bio":null,"name":"ann"}` {
		t.Errorf("json = %s", b)
	}
}

func TestInsertSQL(t *testing.T) {
	rec := &executortest.Recorder{Rows: userRows(1, "ann")}
	r := New[user](users{})
	_ = r.Set("name", value.String("ann"))
	_ = r.SetNull("bio")

	u, err := r.Insert(context.Background(), rec)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if u.ID != 1 || u.Name != "ann" {
		t.Errorf("Insert = %+v", u)
	}
	call := rec.Last()
	if call.SQL != `INSERT INTO "users" ("name", "bio") VALUES ($1, $2) RETURNING *` {
		t.Errorf("sql = %q", call.SQL)
	}
	if !reflect.DeepEqual(call.Args, []any{"ann", nil}) {
		t.Errorf("args = %#v", call.Args)
	}
}

func TestInsertDefaultValues(t *testing.T) {
	rec := &executortest.Recorder{Rows: userRows(1, "")}
	if _, err := New[user](users{}).Insert(context.Background(), rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if got := rec.Last().SQL; got != `INSERT INTO "users" DEFAULT VALUES RETURNING *` {
		t.Errorf("sql = %q", got)
	}
}

func TestUpdateRequiresPrimaryKey(t *testing.T) {
	rec := &executortest.Recorder{}
	r := New[user](users{})
	_ = r.Set("name", value.String("x"))
	if _, err := r.Update(context.Background(), rec); !errors.Is(err, ErrPrimaryKeyRequired) {
		t.Errorf("Update error = %v, want PrimaryKeyRequired", err)
	}
	_ = r.SetNull("id")
	if _, err := r.Update(context.Background(), rec); !errors.Is(err, ErrPrimaryKeyRequired) {
		t.Errorf("Update with null key error = %v, want PrimaryKeyRequired", err)
	}
	if err := r.Delete(context.Background(), rec); !errors.Is(err, ErrPrimaryKeyRequired) {
		t.Errorf("Delete error = %v, want PrimaryKeyRequired", err)
	}
	if n := len(rec.Calls()); n != 0 {
		t.Errorf("statements issued = %d, want 0", n)
	}
}

func TestUpdateSQL(t *testing.T) {
	rec := &executortest.Recorder{Rows: userRows(7, "new")}
	r := New[user](users{})
	_ = r.Set("id", value.Int(7))
	_ = r.Set("name", value.String("new"))

	if _, err := r.Update(context.Background(), rec); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	call := rec.Last()
	if call.SQL != `UPDATE "users" SET "name" = $1 WHERE "id" = $2 RETURNING *` {
		t.Errorf("sql = %q", call.SQL)
	}
	if !reflect.DeepEqual(call.Args, []any{"new", int32(7)}) {
		t.Errorf("args = %#v", call.Args)
	}
}

func TestUpdateNothingStagedReadsBack(t *testing.T) {
	rec := &executortest.Recorder{Rows: userRows(7, "old")}
	r := New[user](users{})
	_ = r.Set("id", value.Int(7))
	u, err := r.Update(context.Background(), rec)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if u.Name != "old" {
		t.Errorf("Update = %+v", u)
	}
	if got := rec.Last().SQL; got != `SELECT * FROM "users" WHERE "users"."id" = $1` {
		t.Errorf("sql = %q", got)
	}
}

func TestUpdateMissingRow(t *testing.T) {
	rec := &executortest.Recorder{}
	r := New[user](users{})
	_ = r.Set("id", value.Int(7))
	_ = r.Set("name", value.String("x"))
	if _, err := r.Update(context.Background(), rec); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Update error = %v, want RecordNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	rec := &executortest.Recorder{Affected: 0}
	r := New[user](users{})
	_ = r.Set("id", value.Int(7))
	if err := r.Delete(context.Background(), rec); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("Delete error = %v, want RecordNotFound", err)
	}
	if got := rec.Last().SQL; got != `DELETE FROM "users" WHERE "id" = $1` {
		t.Errorf("sql = %q", got)
	}

	rec.Affected = 1
	if err := r.Delete(context.Background(), rec); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
}

func TestDatabaseErrorIsWrapped(t *testing.T) {
	cause := errors.New("duplicate key")
	rec := &executortest.Recorder{Err: cause}
	r := New[user](users{})
	_ = r.Set("name", value.String("x"))
	_, err := r.Insert(context.Background(), rec)
	var ae *Error
	if !errors.As(err, &ae) || ae.Kind != DatabaseError {
		t.Fatalf("error = %v, want DatabaseError", err)
	}
	if !errors.Is(err, cause) {
		t.Error("database error should unwrap to its cause")
	}
}

type tenantMember struct{}

func (tenantMember) TableName() string { return "members" }
func (tenantMember) Columns() []query.ColumnDef {
	return []query.ColumnDef{
		{Name: "tenant_id", Kind: value.KindInt},
		{Name: "id", Kind: value.KindInt},
		{Name: "role", Kind: value.KindString},
	}
}
func (tenantMember) PrimaryKey() identity.Identity { return identity.Binary("tenant_id", "id") }
func (tenantMember) FromRow(row executor.Row) (string, error) {
	return executor.Get[string](row, "role")
}

func TestCompositeKeyWrites(t *testing.T) {
	rec := &executortest.Recorder{
		Affected: 1,
		Rows: func(string, []any) ([]executor.Row, error) {
			return []executor.Row{executor.NewRow([]string{"role"}, []value.Value{value.String("admin")})}, nil
		},
	}
	r := New[string](tenantMember{})
	_ = r.Set("tenant_id", value.Int(1))
	_ = r.Set("id", value.Int(2))
	_ = r.Set("role", value.String("admin"))

	role, err := r.Save(context.Background(), rec)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if role != "admin" {
		t.Errorf("Save = %q", role)
	}
	if got := rec.Last().SQL; got != `UPDATE "members" SET "role" = $1 WHERE "tenant_id" = $2 AND "id" = $3 RETURNING *` {
		t.Errorf("sql = %q", got)
	}

	if err := r.Delete(context.Background(), rec); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if got := rec.Last().SQL; got != `DELETE FROM "members" WHERE "tenant_id" = $1 AND "id" = $2` {
		t.Errorf("sql = %q", got)
	}

	_, _ = r.Take("id")
	if _, err := r.Update(context.Background(), rec); !errors.Is(err, ErrPrimaryKeyRequired) {
		t.Errorf("partial key error = %v, want PrimaryKeyRequired", err)
	}
}

type recordingBehavior struct {
	NopBehavior[user]
	calls []string
	fail  string
}

func (b *recordingBehavior) hook(name string) error {
	b.calls = append(b.calls, name)
	if name == b.fail {
		return errors.New(name + " refused")
	}
	return nil
}

func (b *recordingBehavior) BeforeInsert(context.Context, *Record[user]) error {
	return b.hook("before_insert")
}
func (b *recordingBehavior) AfterInsert(context.Context, *Record[user], user) error {
	return b.hook("after_insert")
}
func (b *recordingBehavior) BeforeUpdate(context.Context, *Record[user]) error {
	return b.hook("before_update")
}
func (b *recordingBehavior) AfterUpdate(context.Context, *Record[user], user) error {
	return b.hook("after_update")
}
func (b *recordingBehavior) BeforeSave(context.Context, *Record[user]) error {
	return b.hook("before_save")
}
func (b *recordingBehavior) AfterSave(context.Context, *Record[user], user) error {
	return b.hook("after_save")
}
func (b *recordingBehavior) BeforeDelete(context.Context, *Record[user]) error {
	return b.hook("before_delete")
}
func (b *recordingBehavior) AfterDelete(context.Context, *Record[user]) error {
	return b.hook("after_delete")
}

func TestSaveHookOrder(t *testing.T) {
	ctx := context.Background()

	b := &recordingBehavior{}
	r := NewWithBehavior[user](users{}, b)
	_ = r.Set("name", value.String("ann"))
	if _, err := r.Save(ctx, &executortest.Recorder{Rows: userRows(1, "ann")}); err != nil {
		t.Fatalf("Save (insert) failed: %v", err)
	}
	want := []string{"before_save", "before_insert", "after_insert", "after_save"}
	if !reflect.DeepEqual(b.calls, want) {
		t.Errorf("insert hooks = %v, want %v", b.calls, want)
	}

	b.calls = nil
	_ = r.Set("id", value.Int(1))
	if _, err := r.Save(ctx, &executortest.Recorder{Rows: userRows(1, "ann")}); err != nil {
		t.Fatalf("Save (update) failed: %v", err)
	}
	want = []string{"before_save", "before_update", "after_update", "after_save"}
	if !reflect.DeepEqual(b.calls, want) {
		t.Errorf("update hooks = %v, want %v", b.calls, want)
	}
}

func TestHookErrorAborts(t *testing.T) {
	ctx := context.Background()
	rec := &executortest.Recorder{Rows: userRows(1, "ann"), Affected: 1}

	b := &recordingBehavior{fail: "before_insert"}
	r := NewWithBehavior[user](users{}, b)
	_ = r.Set("name", value.String("ann"))
	if _, err := r.Save(ctx, rec); err == nil {
		t.Fatal("expected hook error")
	}
	if want := []string{"before_save", "before_insert"}; !reflect.DeepEqual(b.calls, want) {
		t.Errorf("hooks = %v, want %v", b.calls, want)
	}
	if n := len(rec.Calls()); n != 0 {
		t.Errorf("statements issued = %d, want 0", n)
	}

	b.calls, b.fail = nil, "after_insert"
	if _, err := r.Save(ctx, rec); err == nil {
		t.Fatal("expected after_insert error")
	}
	if want := []string{"before_save", "before_insert", "after_insert"}; !reflect.DeepEqual(b.calls, want) {
		t.Errorf("hooks = %v, want %v", b.calls, want)
	}

	b.calls, b.fail = nil, "before_delete"
	_ = r.Set("id", value.Int(1))
	if err := r.Delete(ctx, rec); err == nil {
		t.Fatal("expected before_delete error")
	}
	if got := rec.Last().Method; got == "Execute" {
		t.Error("DELETE issued despite hook error")
	}
}
