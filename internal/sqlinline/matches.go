package sqlinline

const matchColumns = `id::text, match_type, supply_kind, coalesce(donation_id::text, ''), coalesce(interest_id::text, ''), request_id::text, donor_id, receiver_id, status, created_at, updated_at, executed_at, completed_at`

const QInsertMatch = `--sql 6a85bebd-785c-43ef-9391-d6956203b485
insert into matches(id, match_type, supply_kind, donation_id, interest_id, request_id, donor_id, receiver_id, status, created_at, updated_at)
values ($1::uuid, $2::text, $3::text, nullif($4::text, '')::uuid, nullif($5::text, '')::uuid, $6::uuid, $7::text, $8::text, $9::text, $10::timestamptz, $11::timestamptz);
`

const QSelectMatch = `--sql a8ce8ffd-8e2e-4ce4-abc4-95de36db495b
select ` + matchColumns + `
from matches
where id = $1::uuid
limit 1;
`

const QSelectActiveMatchForDonation = `--sql f25c65fa-bb1b-4770-a335-259dc446908e
select ` + matchColumns + `
from matches
where donation_id = $1::uuid and status in ('approved', 'executed')
limit 1;
`

const QSelectActiveMatchForInterest = `--sql d59817d0-29df-49b8-98f9-e03665ce2c38
select ` + matchColumns + `
from matches
where interest_id = $1::uuid and status in ('approved', 'executed')
limit 1;
`

const QSelectActiveMatchForRequest = `--sql 6726e274-bde0-451d-b178-b66ae5165f38
select ` + matchColumns + `
from matches
where request_id = $1::uuid and status in ('approved', 'executed')
limit 1;
`

const QUpdateMatchStatus = `--sql dcd1668b-eafb-470a-8ca8-413547c7940a
update matches
set status = $2::text,
    updated_at = $3::timestamptz,
    executed_at = $4::timestamptz,
    completed_at = $5::timestamptz
where id = $1::uuid and status = $6::text;
`

const QMatchExists = `--sql 11500efa-0352-48fb-ae59-ad348859e46c
select exists(select 1 from matches where id = $1::uuid);
`

const QListMatchesByStatus = `--sql ef08dde0-a974-4289-8611-ae5fe0fa08f6
select ` + matchColumns + `
from matches
where status = $1::text
order by created_at desc, id desc;
`

const QListMatchesForUser = `--sql da46c8fd-77b7-4315-ba1e-ddd9a3969250
select ` + matchColumns + `
from matches
where donor_id = $1::text or receiver_id = $1::text
order by created_at desc, id desc;
`

const QListCompletedMatchesFor = `--sql d91804ce-3ce9-45fd-93ec-4c0b42cfb63d
select ` + matchColumns + `
from matches
where status = 'completed'
  and (donor_id = $1::text or receiver_id = $1::text)
  and completed_at >= $2::timestamptz
order by completed_at desc, id desc;
`

const QCountMatchesByStatus = `--sql 8dcd0248-321d-4a8a-a98e-5ec425c6259b
select status, count(*)::int
from matches
group by status;
`
