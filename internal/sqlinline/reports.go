package sqlinline

const QInsertReportJob = `--sql 7be20c51-9d4a-4f2e-8c1a-3f6b2d9e0a41
insert into report_jobs (
    id, user_id, idea, tier, status, cost_tokens,
    prompt_tokens_used, completion_tokens_used, total_tokens_used,
    created_at, updated_at
)
values ($1::uuid, $2::uuid, $3::text, $4::text, 'PENDING', $5::int, 0, 0, 0, now(), now());
`

const QSelectReportJob = `--sql 1e7f3a92-65c8-4b0d-9f44-8a2d5c7e1b63
select id, user_id, idea, tier, status, cost_tokens,
       prompt_tokens_used, completion_tokens_used, total_tokens_used,
       coalesce(artifact_key, ''), coalesce(artifact_bytes, 0), coalesce(preview, ''),
       coalesce(error_message, ''), download_count, last_download_at,
       created_at, updated_at, completed_at
from report_jobs
where id = $1::uuid
limit 1;
`

const QSelectReportJobForUser = `--sql 4a91d5b8-2e3f-4c76-a05d-6f8e1b2c9d07
select id, user_id, idea, tier, status, cost_tokens,
       prompt_tokens_used, completion_tokens_used, total_tokens_used,
       coalesce(artifact_key, ''), coalesce(artifact_bytes, 0), coalesce(preview, ''),
       coalesce(error_message, ''), download_count, last_download_at,
       created_at, updated_at, completed_at
from report_jobs
where id = $1::uuid and user_id = $2::uuid
limit 1;
`

const QListReportJobsByUser = `--sql 9c0b7e24-81f5-4da3-b6c9-2e5a4d8f1c30
select id, user_id, idea, tier, status, cost_tokens,
       prompt_tokens_used, completion_tokens_used, total_tokens_used,
       coalesce(artifact_key, ''), coalesce(artifact_bytes, 0), coalesce(preview, ''),
       coalesce(error_message, ''), download_count, last_download_at,
       created_at, updated_at, completed_at
from report_jobs
where user_id = $1::uuid
order by created_at desc
limit $2::int;
`

const QMarkReportProcessing = `--sql 3f8a1c67-4b2d-49e5-8d7a-0c93e6b5f412
update report_jobs
set status = 'PROCESSING', updated_at = now()
where id = $1::uuid and status = 'PENDING'
returning id;
`

const QMarkReportCompleted = `--sql b5d20e93-7a1c-4f68-92b4-e6d3a8c1f750
update report_jobs
set status = 'COMPLETED',
    artifact_key = $2::text,
    artifact_bytes = $3::bigint,
    preview = $4::text,
    prompt_tokens_used = $5::int,
    completion_tokens_used = $6::int,
    total_tokens_used = $7::int,
    completed_at = $8::timestamptz,
    updated_at = now()
where id = $1::uuid and status = 'PROCESSING';
`

const QMarkReportFailed = `--sql 0d6e4b58-93f2-4a17-b82c-5e1a7d9c3f84
update report_jobs
set status = 'FAILED', error_message = $2::text, updated_at = now()
where id = $1::uuid and status in ('PENDING', 'PROCESSING')
returning id;
`

const QRecordReportDownload = `--sql 62a9f4d1-0c85-4e3b-97d6-b4f2e8a1c593
update report_jobs
set download_count = download_count + 1, last_download_at = now(), updated_at = now()
where id = $1::uuid;
`
