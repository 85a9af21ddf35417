package sqlinline

const QInsertProfile = `--sql 89d24361-2795-440e-be49-e91beec05d20
insert into style_profiles(id, name, source_asset_ids, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::jsonb, now(), now())
returning id::text, name, source_asset_ids, profile, version, created_at, updated_at;
`

const QSelectProfileByID = `--sql ca1fc367-5302-4e88-832f-55402289ceca
select id::text, name, source_asset_ids, profile, version, created_at, updated_at
from style_profiles
where id = $1::uuid
limit 1;
`

const QListProfiles = `--sql 686d4182-e532-4ddd-bc2d-09c8f0d09b82
select id::text, name, source_asset_ids, profile, version, created_at, updated_at
from style_profiles
order by created_at desc;
`

const QSaveProfileAnalysis = `--sql e46b80f8-a416-4df0-8d69-b91f8a075a72
update style_profiles
set profile = $2::jsonb,
    version = version + 1,
    updated_at = now()
where id = $1::uuid
returning id::text, name, source_asset_ids, profile, version, created_at, updated_at;
`
