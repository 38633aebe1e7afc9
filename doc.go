// Package photoblog provides a photo catalog that keeps image objects in an
// object store and their metadata in a relational store.
//
// The two stores share no transaction. Uploads are client mediated: the
// service hands out a short-lived upload grant, the client transfers the bytes
// straight to the object store and then registers metadata referencing the
// object key. Updates and deletes sequence object removal before the metadata
// commit and report every inconsistency they cannot avoid as
// ErrConflictOnCleanup.
//
// # Key Components
//
//   - KeyScheme: Collision-free object keys of the form photos/<uuid>.<ext>
//   - GrantIssuer: Time-limited upload and download URLs over an ObjectStore
//   - PhotoRepo: Interface for metadata persistence (PostgreSQL, SQLite)
//   - Coordinator: Create, update, delete and like with store sequencing
//   - QueryFacade: List, get and tags with fresh download grants attached
//   - Reconciler: Out of band sweep for rows whose object is missing
//   - Signer, SignatureVerifier: AWS Signature V4 presigned URLs for the local store
//
// # Example Usage
//
//	grants, err := photoblog.NewGrantIssuer(store, photoblog.GrantConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	coordinator, err := photoblog.NewCoordinator(repo, store, grants, photoblog.CoordinatorConfig{})
//
//	target, err := coordinator.IssueUploadTarget(ctx, "beach.jpg", "image/jpeg")
//	// client PUTs the image to target.UploadURL
//	photo, err := coordinator.Create(ctx, photoblog.CreatePhoto{
//	    Title:       "Beach",
//	    Description: "Low tide",
//	    ObjectKey:   target.ObjectKey,
//	})
//
// See the http package for the REST API, the database package for catalog
// backends and the objectstore package for object store backends.
package photoblog
