package sqlinline

const interestColumns = `id::text, donor_id, request_id::text, note, status, reject_reason, created_at, updated_at`

const QInsertInterest = `--sql 30c45779-7444-48c2-b02c-e335b4a29dcc
insert into interests(id, donor_id, request_id, note, status, reject_reason, created_at, updated_at)
values ($1::uuid, $2::text, $3::uuid, $4::text, $5::text, $6::text, $7::timestamptz, $8::timestamptz);
`

const QSelectInterest = `--sql 72a0b14a-77d2-4a6d-bbf1-3a4a5a866b82
select ` + interestColumns + `
from interests
where id = $1::uuid
limit 1;
`

const QSelectActiveInterest = `--sql 6d0ba94f-57d7-4e3b-acc2-e274bead3a9e
select ` + interestColumns + `
from interests
where donor_id = $1::text and request_id = $2::uuid and status in ('pending', 'approved')
limit 1;
`

const QUpdateInterestStatus = `--sql 46d95b4c-0001-401c-a9a9-84a8dcee56a3
update interests
set status = $2::text,
    reject_reason = $3::text,
    updated_at = $4::timestamptz
where id = $1::uuid and status = $5::text;
`

const QInterestExists = `--sql adec4aca-47c0-40b7-901a-4e6446151a9f
select exists(select 1 from interests where id = $1::uuid);
`

const QListInterestsByStatus = `--sql 831a510f-ee74-4f36-9ff3-57586a7ecb7f
select ` + interestColumns + `
from interests
where status = $1::text
order by created_at desc, id desc;
`

const QListInterestsForRequest = `--sql 264702fc-69bb-43f6-8e33-601d8810a5bb
select ` + interestColumns + `
from interests
where request_id = $1::uuid
order by created_at desc, id desc;
`

const QCountInterestsByStatus = `--sql e9ecd788-cddc-45d6-a410-26026c52b68d
select status, count(*)::int
from interests
group by status;
`
