package sqlinline

// The sweeper only looks at PENDING rows older than the stale window: a
// freshly submitted job is normally picked up by the submitting process's own
// run goroutine within moments. Claiming itself happens through the
// conditional PENDING -> PROCESSING transition, so two sweepers (or a sweeper
// racing the submitter) cannot both run the same job.
const QSelectStalePendingReports = `--sql 4f55a9b7-4e9f-4e45-a3b3-5a532d21d9db
select id
from report_jobs
where status = 'PENDING'
  and created_at < now() - ($1::int * interval '1 second')
order by created_at asc
limit $2::int;
`
