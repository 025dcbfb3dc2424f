// Command sitepix keeps a static site's photo directory web-ready.
//
// It converts legacy raster formats to WebP, holds every image under a byte
// budget and dimension cap, and carries a handful of maintenance commands
// (check, publish, variants, watch, doctor) around that core.
package main
