package sqlinline

const QSelectIntegrationToken = `--sql 3dd833df-e9fb-42f3-8848-fc01fae69d77
select token
from integration_tokens
where provider = $1::text
limit 1;
`

const QUpsertIntegrationToken = `--sql ab318566-b785-4ec2-9bb9-851e128552fb
with incoming as (
    select
        $1::text as provider,
        $2::text as token
)
insert into integration_tokens (id, provider, token, created_at, updated_at)
values (gen_random_uuid(), (select provider from incoming), (select token from incoming), now(), now())
on conflict (provider) do update set
    token = excluded.token,
    updated_at = now();
`

const QEnsureIntegrationTokensTable = `--sql 9b400b12-d194-43eb-a024-62585c1eb9a2
create table if not exists integration_tokens (
    id         uuid primary key,
    provider   text not null unique,
    token      text not null,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
`
