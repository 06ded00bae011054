package repository

import "embed"

// Migrations SQL миграции goose, вшитые в бинарник
//
//go:embed migrations/*.sql
var Migrations embed.FS
