// Package zipstream serves directories as zip archives that are produced on
// the fly by an external compression tool and streamed to HTTP clients.
//
// Nothing is written to disk: each request spawns one compression process,
// pumps its standard output to the response in bounded chunks, and always
// terminates and reaps the process, whether the archive completed, the client
// went away, the request was canceled, or something failed.
//
// # Key Components
//
//   - Resolver: maps archive identifiers to directories below the archive root
//   - ArchiveProcess: one spawned compression process and its lifecycle
//   - Pump: copies process output to the client chunk by chunk
//   - Guard: guarantees the process is stopped and reaped exactly once
//   - ArchiveService: composes the above into jobs with admission control
//   - JobHistory: optional store of finished jobs, written by Job.Close
//
// # Example Usage
//
//	resolver, err := zipstream.NewResolver("/data/photos", store)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	service, err := zipstream.NewArchiveService(resolver, store, zipstream.ServiceConfig{
//	    Command: zipstream.DefaultArchiveCommand,
//	})
//
//	job, err := service.Open(ctx, "wedding1")
//	if err != nil {
//	    return err
//	}
//	defer job.Close()
//
//	session, err := job.Stream(ctx, w)
//
// See the http package for the HTTP endpoints, the filesystem package for
// the archive root implementation and the database package for the job
// history backends.
package zipstream
