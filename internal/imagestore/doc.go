// Package imagestore persists pulled and built images on disk.
//
// Each image lives under <root>/images/<sanitized-ref>/ as an OCI image
// manifest (manifest.json), an OCI image config (config.json), and its
// layer blobs under blobs/sha256/<hex>, content-addressed by digest.
// Writes follow put-blobs-then-config-then-manifest ordering so that a
// readable manifest.json always implies its referenced blobs are present.
package imagestore
