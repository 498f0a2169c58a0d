package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		global_role VARCHAR(50) NOT NULL DEFAULT 'user',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS organizations (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS organization_members (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role VARCHAR(50) NOT NULL DEFAULT 'developer',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(organization_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS organization_invites (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		inviter_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		invitee_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role VARCHAR(50) NOT NULL DEFAULT 'developer',
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(organization_id, invitee_id)
	)`,

	`CREATE TABLE IF NOT EXISTS auth_configs (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		auth_type VARCHAR(20) NOT NULL,
		config JSONB NOT NULL DEFAULT '{}',
		secrets JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(organization_id, name)
	)`,

	`CREATE TABLE IF NOT EXISTS services (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		base_url VARCHAR(500) NOT NULL,
		service_path VARCHAR(500) NOT NULL,
		auth_config_id UUID REFERENCES auth_configs(id),
		odata_version VARCHAR(10),
		entities JSONB NOT NULL DEFAULT '[]',
		entities_refreshed_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(organization_id, name)
	)`,

	`CREATE TABLE IF NOT EXISTS api_keys (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		environment VARCHAR(20) NOT NULL,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		key_hash VARCHAR(255) NOT NULL UNIQUE,
		key_prefix VARCHAR(40) NOT NULL,
		key_last4 VARCHAR(4) NOT NULL,
		rate_limit_per_minute INTEGER NOT NULL DEFAULT 60,
		rate_limit_per_day INTEGER NOT NULL DEFAULT 10000,
		expires_at TIMESTAMP WITH TIME ZONE,
		revoked_at TIMESTAMP WITH TIME ZONE,
		revoked_reason TEXT,
		last_used_at TIMESTAMP WITH TIME ZONE,
		created_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS access_grants (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		api_key_id UUID NOT NULL REFERENCES api_keys(id) ON DELETE CASCADE,
		service_id UUID NOT NULL REFERENCES services(id),
		permissions JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(api_key_id, service_id)
	)`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash VARCHAR(255) NOT NULL UNIQUE,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_organization_members_org_id ON organization_members(organization_id)`,
	`CREATE INDEX IF NOT EXISTS idx_organization_members_user_id ON organization_members(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_organization_invites_invitee_id ON organization_invites(invitee_id)`,
	`CREATE INDEX IF NOT EXISTS idx_auth_configs_org_id ON auth_configs(organization_id)`,
	`CREATE INDEX IF NOT EXISTS idx_services_org_id ON services(organization_id)`,
	`CREATE INDEX IF NOT EXISTS idx_services_auth_config_id ON services(auth_config_id)`,
	`CREATE INDEX IF NOT EXISTS idx_api_keys_org_id ON api_keys(organization_id)`,
	// The prefix embeds the key id, so Verify resolves a presented
	// secret with one indexed lookup instead of scanning the table.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_api_keys_key_prefix ON api_keys(key_prefix)`,
	`CREATE INDEX IF NOT EXISTS idx_access_grants_api_key_id ON access_grants(api_key_id)`,
	`CREATE INDEX IF NOT EXISTS idx_access_grants_service_id ON access_grants(service_id)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user_id ON refresh_tokens(user_id)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
