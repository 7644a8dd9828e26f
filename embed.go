package webstory

import "embed"

// EmbeddedAssets contains static assets shipped with the application:
// viewer.js, editor.js and site.css
//
//go:embed static/*
var EmbeddedAssets embed.FS

//go:embed migrations/*.sql
var migrationsFS embed.FS
