package sqlinline

// QEnsureSchema creates the tables the api and worker rely on. Every
// statement is idempotent.
const QEnsureSchema = `--sql 642f613a-ce3a-4e2a-b38e-e925101679c8
create table if not exists studio_assets (
  id          uuid primary key,
  kind        text not null default 'image',
  storage_key text not null unique,
  filename    text not null default '',
  mime        text not null,
  bytes       bigint not null default 0,
  width       int not null default 0,
  height      int not null default 0,
  metadata    jsonb not null default '{}'::jsonb,
  uploaded_at timestamptz not null default now()
);

create table if not exists style_profiles (
  id               uuid primary key default gen_random_uuid(),
  name             text not null,
  source_asset_ids jsonb not null default '[]'::jsonb,
  profile          jsonb,
  version          int not null default 0,
  created_at       timestamptz not null default now(),
  updated_at       timestamptz not null default now()
);

create table if not exists studio_jobs (
  id            uuid primary key default gen_random_uuid(),
  kind          text not null,
  status        text not null default 'QUEUED',
  payload       jsonb not null default '{}'::jsonb,
  result        jsonb,
  error_message text not null default '',
  created_at    timestamptz not null default now(),
  updated_at    timestamptz not null default now()
);

create index if not exists studio_jobs_queue_idx on studio_jobs (status, created_at);

create table if not exists integration_tokens (
  id         uuid primary key default gen_random_uuid(),
  provider   text not null unique,
  token      text not null,
  properties jsonb not null default '{}'::jsonb,
  created_at timestamptz not null default now(),
  updated_at timestamptz not null default now()
);
`
