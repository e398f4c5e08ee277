package sqlinline

const listingColumns = `id::text, kind, owner_id, item_name, category, quantity, description, attachments, status, reject_reason, created_at, updated_at, approved_at`

const QInsertListing = `--sql 4101e2fd-ed31-4edd-8eda-9aa21013ac24
insert into listings(id, kind, owner_id, item_name, category, quantity, description, attachments, status, reject_reason, created_at, updated_at, approved_at)
values ($1::uuid, $2::text, $3::text, $4::text, $5::text, $6::int, $7::text, coalesce($8::text[], '{}'::text[]), $9::text, $10::text, $11::timestamptz, $12::timestamptz, $13::timestamptz);
`

const QSelectListing = `--sql 8a2ff5f7-dcbd-4f2f-b191-e325f0e51e8e
select ` + listingColumns + `
from listings
where id = $1::uuid and kind = $2::text
limit 1;
`

const QUpdateListingStatus = `--sql dbf83aaf-ca3a-4b34-95fe-47bc2095695f
update listings
set status = $3::text,
    reject_reason = $4::text,
    approved_at = $5::timestamptz,
    updated_at = $6::timestamptz
where id = $1::uuid and kind = $2::text and status = $7::text;
`

const QListingExists = `--sql f75a7bfa-8b2d-418f-9432-54fabaacdb7b
select exists(select 1 from listings where id = $1::uuid and kind = $2::text);
`

const QListListingsByStatus = `--sql e33b887d-db36-4535-a515-e65cd511ee8d
select ` + listingColumns + `
from listings
where kind = $1::text and status = $2::text
order by created_at desc, id desc;
`

const QListListingsByOwner = `--sql 9b08e8cc-9558-44da-99e0-95878c23a388
select ` + listingColumns + `
from listings
where kind = $1::text and owner_id = $2::text
order by created_at desc, id desc;
`

const QCountListingsByStatus = `--sql 98b93646-9dca-4b99-bf23-b5104c7e455a
select status, count(*)::int
from listings
where kind = $1::text
group by status;
`
