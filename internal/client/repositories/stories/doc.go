// Package stories provides the client-side persistence layer for confirmed
// (server-acknowledged) stories.
//
// # Overview
//
// The package defines a Repository interface and a SQLite-backed
// implementation (SQLiteRepository) over a dbx.DBTX, so the same code runs on
// a *sql.DB or inside a *sql.Tx. Bulk replacement is expressed as Clear
// followed by Put calls; callers wanting all-or-nothing semantics run both
// inside dbx.WithTx.
//
// Typical Usage
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    repo := stories.NewSQLiteRepository(tx)
//	    if err := repo.Clear(ctx); err != nil {
//	        return err
//	    }
//	    for _, s := range list {
//	        if err := repo.Put(ctx, s); err != nil {
//	            return err
//	        }
//	    }
//	    return nil
//	})
package stories
