package sessiontest

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/goforj/gormprobe"
	"github.com/goforj/gormprobe/entity"
)

// Options configures a session contract run.
type Options struct {
	// Parents and ChildrenPerParent control the seeded family shape for the
	// eager and lazy sections. Defaults: 2 parents, 3 children each.
	Parents           int
	ChildrenPerParent int
	// Dialect selects duplicate-key error matching. Defaults to sqlite
	// semantics.
	Dialect gormprobe.Dialect
	// Recorder enables statement-count assertions. It must be the recorder
	// the session was opened with.
	Recorder *gormprobe.QueryRecorder
}

// RunSessionContract runs the dialect-neutral persistence probe sequence
// against an opened session.
func RunSessionContract(t *testing.T, db *gorm.DB, opts Options) {
	t.Helper()

	parents := opts.Parents
	if parents <= 0 {
		parents = 2
	}
	perParent := opts.ChildrenPerParent
	if perParent <= 0 {
		perParent = 3
	}

	ctx := context.Background()
	repo := gormprobe.NewRepository(db)
	mustReset(t, db)

	// Eager graph round-trip: the full family tree comes back ordered, and
	// with a recorder attached the whole load is two statements, one for
	// the parents and one IN-grouped statement for all children.
	if _, err := gormprobe.SeedFamilies(db, parents, perParent); err != nil {
		t.Fatalf("seed families: %v", err)
	}
	if opts.Recorder != nil {
		opts.Recorder.Reset()
	}
	loaded, err := repo.ListParents(ctx)
	if err != nil {
		t.Fatalf("list parents: %v", err)
	}
	if len(loaded) != parents {
		t.Fatalf("expected %d parents, got %d", parents, len(loaded))
	}
	for k, parent := range loaded {
		pid := k + 1
		if parent.ParentID != pid || parent.Name != gormprobe.ParentName(pid) {
			t.Fatalf("unexpected parent at %d: id=%d name=%q", k, parent.ParentID, parent.Name)
		}
		if len(parent.ChildrenEager) != perParent {
			t.Fatalf("parent %d: expected %d eager children, got %d", pid, perParent, len(parent.ChildrenEager))
		}
		for j, ch := range parent.ChildrenEager {
			wantID := k*perParent + j + 1
			if ch.ChildID != wantID || ch.Name != gormprobe.ChildName(pid, j+1) || ch.Age != gormprobe.SeedChildAge {
				t.Fatalf("parent %d child %d: got id=%d name=%q age=%d", pid, j, ch.ChildID, ch.Name, ch.Age)
			}
		}
	}
	if opts.Recorder != nil {
		if got := opts.Recorder.Count(); got != 2 {
			t.Fatalf("expected eager list to issue 2 statements, got %d: %v", got, opts.Recorder.SQLs())
		}
	}

	// Lazy association fetch: loads on demand, complete, and leaves the
	// eager field untouched. Lazily loaded values are fresh allocations,
	// never the eagerly loaded ones.
	first := loaded[0]
	if len(first.ChildrenLazy) != 0 {
		t.Fatalf("expected lazy children unloaded, got %d", len(first.ChildrenLazy))
	}
	lazy, err := repo.LazyChildren(ctx, first)
	if err != nil {
		t.Fatalf("lazy children: %v", err)
	}
	if len(lazy) != perParent {
		t.Fatalf("expected %d lazy children, got %d", perParent, len(lazy))
	}
	lazyByID := make(map[int]*entity.Child, len(lazy))
	for _, ch := range lazy {
		lazyByID[ch.ChildID] = ch
	}
	for _, eager := range first.ChildrenEager {
		got, ok := lazyByID[eager.ChildID]
		if !ok || got.Name != eager.Name {
			t.Fatalf("lazy set missing child %d", eager.ChildID)
		}
		if got == eager {
			t.Fatalf("expected lazy load to allocate fresh values, got shared pointer for child %d", eager.ChildID)
		}
	}
	if len(first.ChildrenEager) != perParent {
		t.Fatalf("lazy load disturbed eager children: %d", len(first.ChildrenEager))
	}

	// Re-key via delete then re-insert: every child moves to id+1, a new
	// first child takes the vacated id, and the refreshed collection
	// converges on the independently tracked reference list.
	mustReset(t, db)
	if _, err := gormprobe.SeedFamilies(db, 1, perParent); err != nil {
		t.Fatalf("seed rekey family: %v", err)
	}
	p1, err := repo.FindParent(ctx, 1)
	if err != nil {
		t.Fatalf("find parent: %v", err)
	}
	snapshot := p1.ChildrenEager
	ids := make([]int, 0, len(snapshot))
	for _, ch := range snapshot {
		ids = append(ids, ch.ChildID)
	}
	if err := repo.DeleteChildren(ctx, ids...); err != nil {
		t.Fatalf("delete children: %v", err)
	}
	tracked := []*entity.Child{gormprobe.NewChild(1, 1, "Child_1_new")}
	for _, old := range snapshot {
		tracked = append(tracked, gormprobe.NewChild(old.ChildID+1, 1, old.Name))
	}
	for _, ch := range tracked {
		if err := repo.CreateChild(ctx, ch); err != nil {
			t.Fatalf("re-insert child %d: %v", ch.ChildID, err)
		}
	}
	if err := repo.Refresh(ctx, p1); err != nil {
		t.Fatalf("refresh after rekey: %v", err)
	}
	compareChildren(t, p1.ChildrenEager, tracked)

	// Re-key via merge: the same rotation driven through upserts, no
	// deletes. The vacated id is overwritten in place and the shifted tail
	// id becomes a new row.
	mustReset(t, db)
	if _, err := gormprobe.SeedFamilies(db, 1, perParent); err != nil {
		t.Fatalf("seed merge family: %v", err)
	}
	p1, err = repo.FindParent(ctx, 1)
	if err != nil {
		t.Fatalf("find parent: %v", err)
	}
	snapshot = p1.ChildrenEager
	tracked = make([]*entity.Child, 0, perParent+1)
	for i := len(snapshot) - 1; i >= 0; i-- {
		moved := gormprobe.NewChild(snapshot[i].ChildID+1, 1, snapshot[i].Name)
		if err := repo.MergeChild(ctx, moved); err != nil {
			t.Fatalf("merge child %d: %v", moved.ChildID, err)
		}
		tracked = append(tracked, moved)
	}
	newFirst := gormprobe.NewChild(1, 1, "Child_1_new")
	if err := repo.MergeChild(ctx, newFirst); err != nil {
		t.Fatalf("merge new first child: %v", err)
	}
	tracked = append(tracked, newFirst)
	sortChildren(tracked)
	if err := repo.Refresh(ctx, p1); err != nil {
		t.Fatalf("refresh after merge rekey: %v", err)
	}
	compareChildren(t, p1.ChildrenEager, tracked)
	if n, err := gormprobe.RowCount(db, "child"); err != nil || n != int64(perParent+1) {
		t.Fatalf("expected %d child rows after merge rekey, got %d (err=%v)", perParent+1, n, err)
	}

	// Stale loaded graphs: merging renamed copies updates rows while the
	// previously loaded structs keep their old values until re-read.
	mustReset(t, db)
	if _, err := gormprobe.SeedFamilies(db, 1, perParent); err != nil {
		t.Fatalf("seed stale family: %v", err)
	}
	before, err := repo.FindParent(ctx, 1)
	if err != nil {
		t.Fatalf("find parent: %v", err)
	}
	renamedParent := &entity.Parent{ParentID: 1, Name: before.Name + "_updated", Gender: before.Gender}
	if err := repo.MergeParent(ctx, renamedParent); err != nil {
		t.Fatalf("merge renamed parent: %v", err)
	}
	for _, ch := range before.ChildrenEager {
		renamed := gormprobe.NewChild(ch.ChildID, 1, ch.Name+"_updated")
		if err := repo.MergeChild(ctx, renamed); err != nil {
			t.Fatalf("merge renamed child %d: %v", ch.ChildID, err)
		}
	}
	if before.Name != gormprobe.ParentName(1) {
		t.Fatalf("expected loaded parent to keep stale name, got %q", before.Name)
	}
	for i, ch := range before.ChildrenEager {
		if ch.Name != gormprobe.ChildName(1, i+1) {
			t.Fatalf("expected loaded child %d to keep stale name, got %q", ch.ChildID, ch.Name)
		}
	}
	after, err := repo.FindParent(ctx, 1)
	if err != nil {
		t.Fatalf("re-read parent: %v", err)
	}
	if after == before {
		t.Fatalf("expected re-read to allocate a fresh parent")
	}
	if after.Name != gormprobe.ParentName(1)+"_updated" {
		t.Fatalf("expected re-read to see merged name, got %q", after.Name)
	}
	for i, ch := range after.ChildrenEager {
		if ch.Name != gormprobe.ChildName(1, i+1)+"_updated" {
			t.Fatalf("expected re-read child %d renamed, got %q", ch.ChildID, ch.Name)
		}
	}

	// Identifier assignment: a caller-assigned key survives the write and
	// the row is findable under it; an unset key is generated by the hook.
	assigned := uuid.New()
	keyed := &entity.TestEntity{ID: assigned, Name: "keyed"}
	if err := db.WithContext(ctx).Create(keyed).Error; err != nil {
		t.Fatalf("create keyed entity: %v", err)
	}
	if keyed.ID != assigned {
		t.Fatalf("expected assigned id to win, got %s", keyed.ID)
	}
	var foundKeyed entity.TestEntity
	if err := db.WithContext(ctx).First(&foundKeyed, "id = ?", assigned).Error; err != nil {
		t.Fatalf("find keyed entity: %v", err)
	}
	if foundKeyed.Name != "keyed" {
		t.Fatalf("unexpected keyed entity name %q", foundKeyed.Name)
	}
	generated := &entity.TestEntity{Name: "generated"}
	if err := db.WithContext(ctx).Create(generated).Error; err != nil {
		t.Fatalf("create generated entity: %v", err)
	}
	if generated.ID == uuid.Nil {
		t.Fatalf("expected hook to fill the id")
	}
	if generated.ID == assigned {
		t.Fatalf("expected a distinct generated id")
	}

	// Enum codes: a code written behind the ORM's back reads back as the
	// enum; an enum written through the ORM lands as its code.
	mustReset(t, db)
	if _, err := gormprobe.SeedFamilies(db, 1, 1); err != nil {
		t.Fatalf("seed enum family: %v", err)
	}
	if err := db.WithContext(ctx).Exec("UPDATE parent SET gender = ? WHERE parent_id = ?", entity.GenderMale.Code(), 1).Error; err != nil {
		t.Fatalf("raw gender update: %v", err)
	}
	reloaded, err := repo.FindParent(ctx, 1)
	if err != nil {
		t.Fatalf("find parent: %v", err)
	}
	if reloaded.Gender != entity.GenderMale {
		t.Fatalf("expected %v, got %v", entity.GenderMale, reloaded.Gender)
	}
	if err := db.WithContext(ctx).Model(&entity.Parent{}).Where("parent_id = ?", 1).Update("gender", entity.GenderFemale).Error; err != nil {
		t.Fatalf("orm gender update: %v", err)
	}
	var code string
	if err := db.WithContext(ctx).Raw("SELECT gender FROM parent WHERE parent_id = ?", 1).Scan(&code).Error; err != nil {
		t.Fatalf("read gender code: %v", err)
	}
	if code != entity.GenderFemale.Code() {
		t.Fatalf("expected stored code %q, got %q", entity.GenderFemale.Code(), code)
	}

	// Refresh rebuilds the loaded struct from current rows.
	fresh, err := repo.FindParent(ctx, 1)
	if err != nil {
		t.Fatalf("find parent: %v", err)
	}
	if err := db.WithContext(ctx).Exec("UPDATE child SET name = ? WHERE child_id = ?", "Child_1_renamed", 1).Error; err != nil {
		t.Fatalf("raw child rename: %v", err)
	}
	if fresh.ChildrenEager[0].Name != gormprobe.ChildName(1, 1) {
		t.Fatalf("expected loaded child to keep stale name, got %q", fresh.ChildrenEager[0].Name)
	}
	if err := repo.Refresh(ctx, fresh); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if fresh.ChildrenEager[0].Name != "Child_1_renamed" {
		t.Fatalf("expected refresh to see renamed child, got %q", fresh.ChildrenEager[0].Name)
	}

	// Re-inserting under an occupied key before deleting its row collides.
	err = repo.CreateChild(ctx, gormprobe.NewChild(1, 1, "Child_1_copy"))
	if err == nil {
		t.Fatalf("expected duplicate key error")
	}
	if !gormprobe.IsDuplicateKeyErr(err, opts.Dialect) {
		t.Fatalf("expected duplicate key error, got %v", err)
	}

	mustReset(t, db)
}

func mustReset(t *testing.T, db *gorm.DB) {
	t.Helper()
	if err := gormprobe.Reset(db); err != nil {
		t.Fatalf("reset tables: %v", err)
	}
}

func compareChildren(t *testing.T, got, want []*entity.Child) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d children, got %d", len(want), len(got))
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.ChildID != w.ChildID || g.Name != w.Name || g.Age != w.Age || g.ParentID != w.ParentID {
			t.Fatalf("child %d: got id=%d name=%q age=%d parent=%d, want id=%d name=%q age=%d parent=%d",
				i, g.ChildID, g.Name, g.Age, g.ParentID, w.ChildID, w.Name, w.Age, w.ParentID)
		}
		if g == w {
			t.Fatalf("expected reloaded child %d to be a fresh allocation", g.ChildID)
		}
	}
}

func sortChildren(children []*entity.Child) {
	sort.Slice(children, func(i, j int) bool {
		return children[i].ChildID < children[j].ChildID
	})
}
