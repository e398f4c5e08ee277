package sqlinline

const feedbackColumns = `id::text, match_id::text, author_id, role, rating, category, comment, anonymous, status, admin_response, created_at, updated_at, responded_at`

const QInsertFeedback = `--sql 0e2e676a-aa77-459f-9fa8-31d11b56e887
insert into feedback(id, match_id, author_id, role, rating, category, comment, anonymous, status, admin_response, created_at, updated_at, responded_at)
values ($1::uuid, $2::uuid, $3::text, $4::text, $5::int, $6::text, $7::text, $8::bool, $9::text, $10::text, $11::timestamptz, $12::timestamptz, $13::timestamptz);
`

const QSelectFeedback = `--sql 73568b51-4c81-4624-85fe-735a66b42743
select ` + feedbackColumns + `
from feedback
where id = $1::uuid
limit 1;
`

const QListFeedbackByAuthor = `--sql c2f11197-ef08-4fd3-b76c-7db75aae49f3
select ` + feedbackColumns + `
from feedback
where author_id = $1::text
order by created_at desc, id desc;
`

const QListFeedbackByStatus = `--sql 3cc1da2d-d0d5-418a-9c06-61678ca9e0f7
select ` + feedbackColumns + `
from feedback
where status = $1::text
order by created_at desc, id desc
limit $2::int;
`

const QListPublishedFeedback = `--sql 53a9fca8-1c91-4f05-b5bf-55704514edd2
select ` + feedbackColumns + `
from feedback
where status in ('approved', 'featured')
order by (status = 'featured') desc, created_at desc, id desc
limit $1::int;
`

const QSelectFeedbackForUpdate = `--sql 5b0e9c41-7d2a-4f63-9a18-c3e6f0d47b25
select ` + feedbackColumns + `
from feedback
where id = $1::uuid
limit 1
for update;
`

const QUpdateFeedback = `--sql a7820003-d8cc-43be-b88b-e66c64906b07
update feedback
set rating = $2::int,
    category = $3::text,
    comment = $4::text,
    anonymous = $5::bool,
    status = $6::text,
    admin_response = $7::text,
    updated_at = $8::timestamptz,
    responded_at = $9::timestamptz
where id = $1::uuid;
`

const QDeleteFeedback = `--sql fee7b9cd-ec36-4d68-ad0d-c4534d989e24
delete from feedback
where id = $1::uuid;
`

const QCountFeedbackByStatus = `--sql 70913efd-ded1-4cd6-9b8d-f4b4e027bf99
select status, count(*)::int
from feedback
group by status;
`
