package sqlinline

const QStatsSummary = `--sql 0f0557a2-1731-4fc6-8cbe-8540b1d2b6df
select
  total_users,
  reports_completed,
  reports_failed,
  reports_last24,
  tokens_consumed,
  tokens_refunded
from vw_stats_summary;
`

const QInsertAnalyticsDaily = `--sql 8cd14f6a-3b97-4e20-a5d8-f1e6b2c74093
insert into analytics_daily (
    day, report_requests, request_success, request_fail, tokens_consumed, tokens_refunded, artifacts_served
) values (
    $1::date, $2::int, $3::int, $4::int, $5::int, $6::int, $7::int
) on conflict (day) do update set
    report_requests = analytics_daily.report_requests + excluded.report_requests,
    request_success = analytics_daily.request_success + excluded.request_success,
    request_fail = analytics_daily.request_fail + excluded.request_fail,
    tokens_consumed = analytics_daily.tokens_consumed + excluded.tokens_consumed,
    tokens_refunded = analytics_daily.tokens_refunded + excluded.tokens_refunded,
    artifacts_served = analytics_daily.artifacts_served + excluded.artifacts_served,
    updated_at = now();
`

const QSelectAnalyticsSummary = `--sql 2b90e7d3-6f41-4c85-9a2e-0d7c5f8a1b64
select day, report_requests, request_success, request_fail, tokens_consumed, tokens_refunded, artifacts_served, created_at, updated_at
from analytics_daily
order by day desc
limit 1;
`
