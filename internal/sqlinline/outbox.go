package sqlinline

const outboxColumns = `event_id::text, event_type, subject_kind, subject_id, recipients, data, occurred_at, status, retry_count, next_retry_at, updated_at`

const QInsertOutbox = `--sql aff42f24-ab69-41b3-a33d-fa055b70e306
insert into outbox(event_id, event_type, subject_kind, subject_id, recipients, data, occurred_at, status, retry_count, updated_at)
values ($1::uuid, $2::text, $3::text, $4::text, coalesce($5::text[], '{}'::text[]), coalesce($6::jsonb, '{}'::jsonb), $7::timestamptz, 'pending', 0, $7::timestamptz)
on conflict (event_id) do nothing;
`

const QSelectOutbox = `--sql 1d378726-ccf4-49c8-900c-91eace9f8954
select ` + outboxColumns + `
from outbox
where event_id = $1::uuid
limit 1
for update;
`

const QListPendingOutbox = `--sql d3f3a078-c0fc-4893-ad78-2967995dbfa5
select ` + outboxColumns + `
from outbox
where status = 'pending' and (next_retry_at is null or next_retry_at <= $1::timestamptz)
order by occurred_at asc, event_id asc
limit $2::int;
`

const QMarkOutboxSent = `--sql 306ac933-4da1-46dc-b47a-38b718eceb39
update outbox
set status = 'sent', next_retry_at = null, updated_at = $2::timestamptz
where event_id = $1::uuid;
`

const QMarkOutboxFailed = `--sql 19536922-d4e7-407a-87da-60646dc5a4e8
update outbox
set retry_count = retry_count + 1,
    status = case when retry_count + 1 >= $2::int then 'failed' else 'pending' end,
    next_retry_at = case when retry_count + 1 >= $2::int then null
                         else $3::timestamptz + make_interval(secs => (retry_count + 1) * $4::int) end,
    updated_at = $3::timestamptz
where event_id = $1::uuid;
`

const QListFailedOutbox = `--sql b4fa02f8-f896-4db6-9f09-ffe73c51580a
select ` + outboxColumns + `
from outbox
where status = 'failed'
order by updated_at desc, event_id desc
limit $1::int;
`

const QReplayOutbox = `--sql 0d8dd6e2-ae8a-4ab4-96e3-4681781796c9
update outbox
set status = 'pending', retry_count = 0, next_retry_at = null, updated_at = $2::timestamptz
where event_id = $1::uuid;
`
