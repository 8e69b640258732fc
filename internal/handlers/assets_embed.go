package handlers

import "embed"

// TemplatesFS embeds the page templates
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// AssetsFS embeds the templates/assets directory for static serving
//
//go:embed templates/assets/*
var AssetsFS embed.FS
