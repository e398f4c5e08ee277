package sqlinline

const notificationColumns = `id::text, event_id::text, user_id, type, payload, read_at, created_at`

const QInsertNotification = `--sql 3dd6f365-37ca-4c73-b009-2de5b46dfa29
insert into notifications(id, event_id, user_id, type, payload, created_at)
values ($1::uuid, $2::uuid, $3::text, $4::text, coalesce($5::jsonb, '{}'::jsonb), $6::timestamptz)
on conflict (event_id, user_id) do nothing;
`

const QSelectNotification = `--sql b087f07d-13af-41ce-ad53-90334cc9d125
select ` + notificationColumns + `
from notifications
where id = $1::uuid
limit 1;
`

const QListNotificationsForUser = `--sql 695f4806-edfc-4b35-9bf4-3d79dd4e1c85
select ` + notificationColumns + `
from notifications
where user_id = $1::text and (not $2::bool or read_at is null)
order by created_at desc, id desc
limit $3::int offset $4::int;
`

const QCountUnreadNotifications = `--sql e70057a7-4ea7-4ead-a16a-327212fee105
select count(*)::int
from notifications
where user_id = $1::text and read_at is null;
`

const QMarkNotificationRead = `--sql 1efc381d-3e0f-4bd3-bda5-f097d050f24f
update notifications
set read_at = coalesce(read_at, $2::timestamptz)
where id = $1::uuid;
`

const QMarkAllNotificationsRead = `--sql be58345b-ff7d-4745-b340-d73aa204d927
update notifications
set read_at = $2::timestamptz
where user_id = $1::text and read_at is null;
`

const QDeleteNotification = `--sql d4c2aa0b-74b0-458c-b1b6-f1baf11d5bbb
delete from notifications
where id = $1::uuid;
`

const QDeleteNotificationsForUser = `--sql f18bae36-1b4c-4e9a-a1e2-2d933b1f96fb
delete from notifications
where user_id = $1::text;
`
