package timescaledb

const createTableSQL = `
CREATE TABLE IF NOT EXISTS samples (
    time timestamp WITH TIME ZONE NOT NULL,
    hours float8 NULL,
    temp_50mk float8 NULL,
    temp_he3 float8 NULL,
    temp_3k float8 NULL,
    magnet_diode float8 NULL,
    temp_50k float8 NULL,
    setpoint float8 NULL,
    current float8 NULL,
    voltage float8 NULL,
    notes text NULL,
    filepath text NULL
);
`

const createIngestsSQL = `
CREATE TABLE IF NOT EXISTS ingests (
    id text PRIMARY KEY,
    filepath text NOT NULL,
    row_count bigint NOT NULL,
    ingested_at timestamp WITH TIME ZONE NOT NULL
);
`

const createExtensionSQL = `CREATE EXTENSION IF NOT EXISTS timescaledb;`

const createHypertableSQL = `SELECT create_hypertable('samples', 'time', if_not_exists => true);`
