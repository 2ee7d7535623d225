package postgres

import (
	"context"

	"bloodLink/pkg/e"
)

const schema = `
CREATE EXTENSION IF NOT EXISTS postgis;

CREATE TABLE IF NOT EXISTS donors (
	id                 uuid PRIMARY KEY,
	name               text NOT NULL,
	blood_group        text NOT NULL,
	phone              text NOT NULL,
	gender             text NOT NULL DEFAULT '',
	location_name      text NOT NULL DEFAULT '',
	geo_point          geography(Point, 4326),
	available          boolean NOT NULL DEFAULT true,
	last_donation_date timestamptz,
	created_at         timestamptz NOT NULL
);

CREATE TABLE IF NOT EXISTS blood_requests (
	id                uuid PRIMARY KEY,
	draft_id          uuid,
	requester_id      text NOT NULL DEFAULT '',
	patient_name      text NOT NULL,
	blood_group       text NOT NULL,
	units_needed      integer NOT NULL CHECK (units_needed >= 1),
	urgency_level     text NOT NULL,
	hospital_name     text NOT NULL,
	hospital_address  text NOT NULL,
	contact_person    text NOT NULL,
	contact_phone     text NOT NULL,
	medical_condition text NOT NULL,
	additional_notes  text NOT NULL DEFAULT '',
	required_by       timestamptz NOT NULL,
	geo_point         geography(Point, 4326),
	priority          integer NOT NULL,
	respond_by        timestamptz NOT NULL,
	status            text NOT NULL,
	created_at        timestamptz NOT NULL
);

ALTER TABLE blood_requests ADD COLUMN IF NOT EXISTS draft_id uuid;
CREATE UNIQUE INDEX IF NOT EXISTS blood_requests_draft_id_key ON blood_requests (draft_id);

CREATE INDEX IF NOT EXISTS blood_requests_status_idx ON blood_requests (status, priority, created_at DESC);

CREATE TABLE IF NOT EXISTS donor_responses (
	id           bigserial PRIMARY KEY,
	request_id   uuid NOT NULL REFERENCES blood_requests (id),
	donor_id     text NOT NULL,
	donor_name   text NOT NULL DEFAULT '',
	message      text NOT NULL,
	phone        text NOT NULL DEFAULT '',
	responded_at timestamptz NOT NULL
);

CREATE INDEX IF NOT EXISTS donor_responses_request_idx ON donor_responses (request_id, id);
`

// Migrate creates the tables if they do not exist yet.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.Pool.Exec(ctx, schema); err != nil {
		return e.Wrap("storage.pg.Migrate", err)
	}
	return nil
}
