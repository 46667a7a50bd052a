package sqlinline

const QEnsureJobsTable = `--sql 9c54bad9-d0f7-4289-b6fb-325bc8a3ab0a
create table if not exists tryon_jobs (
    id                uuid primary key,
    state             text not null,
    person_image_key  text not null,
    garment_image_key text not null,
    remote_job_id     text not null default '',
    result_image_url  text not null default '',
    result_asset_key  text not null default '',
    error_detail      text not null default '',
    delivery_count    int not null default 0,
    lease_expires_at  timestamptz,
    acked_at          timestamptz,
    created_at        timestamptz not null default now(),
    updated_at        timestamptz not null default now()
);
`

const QInsertJob = `--sql 096af08b-389c-4e0c-8fdc-df4c9ab01da5
insert into tryon_jobs (id, state, person_image_key, garment_image_key)
values ($1::uuid, $2::text, $3::text, $4::text)
returning created_at, updated_at;
`

const QSelectJob = `--sql da1db990-3609-45b4-9e7d-a326a9968b1b
select id, state, person_image_key, garment_image_key, remote_job_id,
       result_image_url, result_asset_key, error_detail, delivery_count,
       created_at, updated_at
from tryon_jobs
where id = $1::uuid;
`

const QClaimJob = `--sql cda64710-6217-4a7c-bc47-6b87575748da
with next_job as (
    select id
    from tryon_jobs
    where state in ('queued', 'submitted', 'polling')
      and (lease_expires_at is null or lease_expires_at < now())
    order by created_at asc
    for update skip locked
    limit 1
)
update tryon_jobs
set lease_expires_at = now() + make_interval(secs => $1::int),
    delivery_count = delivery_count + 1,
    updated_at = now()
where id in (select id from next_job)
returning id, delivery_count;
`

const QAckJob = `--sql 5546f0fc-e7aa-4641-b425-7dc2dc59b62f
update tryon_jobs
set lease_expires_at = null,
    acked_at = now(),
    updated_at = now()
where id = $1::uuid;
`

const QMarkJobSubmitted = `--sql e53d692c-421f-432d-b59c-cd9df8436411
update tryon_jobs
set state = 'submitted',
    remote_job_id = $2::text,
    updated_at = now()
where id = $1::uuid
  and state = 'queued'
returning id;
`

const QMarkJobPolling = `--sql 2eddb0a7-965b-4bdb-ae4d-e61c2c2632cf
update tryon_jobs
set state = 'polling',
    updated_at = now()
where id = $1::uuid
  and state = 'submitted'
returning id;
`

const QMarkJobCompleted = `--sql 5a7ecaf0-ac1e-41ba-b5fb-5f77e86db5d6
update tryon_jobs
set state = 'completed',
    result_image_url = $2::text,
    result_asset_key = $3::text,
    updated_at = now()
where id = $1::uuid
  and state in ('submitted', 'polling')
returning id;
`

const QMarkJobTerminal = `--sql f4e6bd08-e075-4d0f-b0c0-8f502e65a19b
update tryon_jobs
set state = $2::text,
    error_detail = $3::text,
    updated_at = now()
where id = $1::uuid
  and state in ('queued', 'submitted', 'polling')
returning id;
`
