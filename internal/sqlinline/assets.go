package sqlinline

const QInsertAsset = `--sql dc00c071-1954-4b90-8935-d084abbb7720
insert into studio_assets(id, kind, storage_key, filename, mime, bytes, width, height, metadata, uploaded_at)
values ($1::uuid, $2::text, $3::text, $4::text, $5::text, $6::bigint, $7::int, $8::int, coalesce($9::jsonb, '{}'::jsonb), $10::timestamptz)
on conflict do nothing;
`

const QSelectAssetByID = `--sql f9aedac6-5720-4493-a483-6e8127b406f5
select id::text, kind, storage_key, filename, mime, bytes, width, height, metadata, uploaded_at
from studio_assets
where id = $1::uuid
limit 1;
`

const QListAssets = `--sql cb4c0f68-a8b4-407e-9e7a-13c757b0dc65
select id::text, kind, storage_key, filename, mime, bytes, width, height, metadata, uploaded_at
from studio_assets
order by uploaded_at desc
limit $1::int offset $2::int;
`
