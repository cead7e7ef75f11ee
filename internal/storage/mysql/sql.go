package mysql

// -----------------------------------------------------------------------------
// HOTELS
// -----------------------------------------------------------------------------

const upsertHotelSQL = `
INSERT INTO hotels
  (id, name, price, saved_price, estimated_price, rating, user_rating_count,
   types, formatted_address, city, country, lat, lon, images, owner_id, raw)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name              = VALUES(name),
  price             = COALESCE(VALUES(price), hotels.price),
  rating            = VALUES(rating),
  user_rating_count = VALUES(user_rating_count),
  types             = VALUES(types),
  formatted_address = VALUES(formatted_address),
  city              = VALUES(city),
  country           = VALUES(country),
  lat               = VALUES(lat),
  lon               = VALUES(lon),
  images            = VALUES(images),
  owner_id          = COALESCE(VALUES(owner_id), hotels.owner_id),
  raw               = VALUES(raw),
  updated_at        = CURRENT_TIMESTAMP
`

const saveEstimateSQL = `
UPDATE hotels
SET estimated_price = ?
WHERE id = ?
`

const getHotelSQL = `
SELECT id, name, price, saved_price, estimated_price, rating, user_rating_count,
       types, formatted_address, city, country, lat, lon, images, owner_id, raw
FROM hotels
WHERE id = ?
`

const listHotelsPrefix = `
SELECT id, name, price, saved_price, estimated_price, rating, user_rating_count,
       types, formatted_address, city, country, lat, lon, images, owner_id, raw
FROM hotels
`

const insertMissSQL = `
INSERT INTO ingest_misses (query, http_status, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE seen_at = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// USERS
// -----------------------------------------------------------------------------

const insertUserSQL = `
INSERT INTO users (name, email, password_hash, role, plan)
VALUES (?, ?, ?, ?, ?)
`

const getUserSQL = `
SELECT id, name, email, password_hash, role, plan, phone, bio,
       profile_image, cover_image, created_at
FROM users
WHERE id = ?
`

const getUserByEmailSQL = `
SELECT id, name, email, password_hash, role, plan, phone, bio,
       profile_image, cover_image, created_at
FROM users
WHERE email = ?
`

// COALESCE keeps the stored value when the update leaves a field nil.
const updateProfileSQL = `
UPDATE users
SET name  = COALESCE(?, name),
    phone = COALESCE(?, phone),
    bio   = COALESCE(?, bio)
WHERE id = ?
`

const updatePasswordSQL = `UPDATE users SET password_hash = ? WHERE id = ?`
const updatePlanSQL = `UPDATE users SET plan = ? WHERE id = ?`
const updateRoleSQL = `UPDATE users SET role = ? WHERE id = ?`
const updateProfileImageSQL = `UPDATE users SET profile_image = ? WHERE id = ?`
const updateCoverImageSQL = `UPDATE users SET cover_image = ? WHERE id = ?`

// -----------------------------------------------------------------------------
// ADMIN APPROVALS
// -----------------------------------------------------------------------------

const insertApprovalSQL = `
INSERT INTO admin_approvals (user_id, email, token, status)
VALUES (?, ?, ?, ?)
`

const getApprovalByTokenSQL = `
SELECT id, user_id, email, token, status, code, code_expires_at, created_at, updated_at
FROM admin_approvals
WHERE token = ?
`

// Newest request wins when a user re-registered.
const getApprovalByEmailSQL = `
SELECT id, user_id, email, token, status, code, code_expires_at, created_at, updated_at
FROM admin_approvals
WHERE email = ?
ORDER BY created_at DESC, id DESC
LIMIT 1
`

const setApprovalStatusSQL = `
UPDATE admin_approvals
SET status = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

const setApprovalCodeSQL = `
UPDATE admin_approvals
SET code = ?, code_expires_at = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

// -----------------------------------------------------------------------------
// BOOKINGS
// -----------------------------------------------------------------------------

const insertBookingSQL = `
INSERT INTO bookings (hotel_id, user_id, check_in, check_out, nights, nightly_ron, total_ron, status)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

// Two stays overlap when each starts before the other ends.
const overlappingBookingsSQL = `
SELECT COUNT(*)
FROM bookings
WHERE hotel_id = ?
  AND status = 'paid'
  AND check_in < ?
  AND check_out > ?
`
