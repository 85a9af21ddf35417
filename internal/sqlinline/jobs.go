package sqlinline

const QEnqueueJob = `--sql 0d91dd7f-20d2-4651-94cf-9945e43a209f
insert into studio_jobs(id, kind, status, payload, created_at, updated_at)
values (gen_random_uuid(), $1::text, 'QUEUED', coalesce($2::jsonb, '{}'::jsonb), now(), now())
returning id::text, kind, status, payload, result, error_message, created_at, updated_at;
`

const QSelectJobByID = `--sql 5917732e-63a8-4624-8c7c-153b2e5d17c5
select id::text, kind, status, payload, result, error_message, created_at, updated_at
from studio_jobs
where id = $1::uuid
limit 1;
`

const QClaimJob = `--sql b1f91438-656e-4cb0-863a-7aac5130a697
with next_job as (
    select id
    from studio_jobs
    where status = 'QUEUED'
    order by created_at asc
    for update skip locked
    limit 1
),
updated as (
    update studio_jobs
    set status = 'RUNNING', updated_at = now()
    where id in (select id from next_job)
    returning id::text, kind, status, payload, result, error_message, created_at, updated_at
)
select * from updated;
`

const QCompleteJob = `--sql 58deb64e-1507-4e97-9186-f1134484e052
update studio_jobs
set status = 'SUCCEEDED',
    result = $2::jsonb,
    error_message = '',
    updated_at = now()
where id = $1::uuid;
`

const QFailJob = `--sql 6e428ea4-5523-4a0b-9178-aa1a031c5f50
update studio_jobs
set status = 'FAILED',
    error_message = $2::text,
    updated_at = now()
where id = $1::uuid;
`
