// Package sessiontest provides a reusable, backend-agnostic contract suite
// for the persistence semantics every supported dialect must share.
//
// A probe file opens a session against its backend and hands it over:
//
//	func TestPostgresSessionContract(t *testing.T) {
//		rec := gormprobe.NewQueryRecorder()
//		db, err := gormprobe.Open(gormprobe.Config{
//			Dialect:  gormprobe.DialectPostgres,
//			DSN:      dsn,
//			Recorder: rec,
//		})
//		if err != nil {
//			t.Fatalf("open postgres session: %v", err)
//		}
//
//		sessiontest.RunSessionContract(t, db, sessiontest.Options{
//			Dialect:  gormprobe.DialectPostgres,
//			Recorder: rec,
//		})
//	}
//
// The contract owns the probe tables for the duration of a run: it clears
// them before seeding and again when it finishes.
package sessiontest
